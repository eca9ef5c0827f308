package driver

const (
	// MatchEntitiesQuery returns every entity whose name or description
	// contains at least one of the supplied terms, case-insensitively.
	// This is exactly the support set of the relevance score (any entity
	// scoring above zero matches at least one CONTAINS clause), so the
	// retriever can rank the candidates in process.
	MatchEntitiesQuery = `
		MATCH (e:Entity)
		WHERE any(term IN $terms WHERE
			toLower(e.name) CONTAINS toLower(term)
			OR toLower(coalesce(e.description, '')) CONTAINS toLower(term))
		RETURN e.name AS name,
			coalesce(e.description, '') AS description,
			coalesce(e.type, 'Entity') AS type
	`

	// EntityRelationsQuery fetches one hop of outgoing relations for an
	// entity. Relations are stored as RELATED_TO with the semantic type on
	// the relationship property; fall back to the relationship type for
	// graphs ingested by other tools.
	EntityRelationsQuery = `
		MATCH (a:Entity {name: $name})-[r]->(b:Entity)
		RETURN coalesce(r.type, type(r)) AS relType,
			b.name AS target,
			coalesce(b.description, '') AS targetDesc,
			coalesce(b.type, 'Entity') AS targetType
		LIMIT $limit
	`

	MergeEntityQuery = `
		MERGE (e:Entity {name: $name})
		SET e.type = $type,
			e.description = $description,
			e.last_updated = datetime()
		RETURN e.name AS name
	`

	MergeRelationQuery = `
		MATCH (a:Entity {name: $source})
		MATCH (b:Entity {name: $target})
		MERGE (a)-[r:RELATED_TO {type: $type}]->(b)
		SET r.description = $description
		RETURN a.name AS source
	`

	CreateEntityNameConstraintQuery = `
		CREATE CONSTRAINT IF NOT EXISTS FOR (e:Entity) REQUIRE e.name IS UNIQUE
	`

	WipeQuery = `
		MATCH (n) DETACH DELETE n
	`
)
