package livenessRepository

const (
	queryCreateSession = `
		INSERT INTO liveness_sessions (
			id,
			user_id,
			tolerance,
			axis,
			status,
			handoff_code_hash,
			last_zone,
			centered,
			created_at,
			updated_at
		) VALUES (
			:id,
			:user_id,
			:tolerance,
			:axis,
			:status,
			:handoff_code_hash,
			:last_zone,
			:centered,
			:created_at,
			:updated_at
		)
	`

	queryGetSessionByID = `
		SELECT
			id,
			user_id,
			tolerance,
			axis,
			status,
			handoff_code_hash,
			last_zone,
			centered,
			claimed_at,
			created_at,
			updated_at,
			ended_at
		FROM liveness_sessions
		WHERE id = :id
	`

	queryUpdateTolerance = `
		UPDATE liveness_sessions
		SET
			tolerance = :tolerance,
			updated_at = :updated_at
		WHERE id = :id AND status = 'active'
	`

	queryUpdateZoneState = `
		UPDATE liveness_sessions
		SET
			last_zone = :last_zone,
			centered = :centered,
			updated_at = :updated_at
		WHERE id = :id AND status = 'active'
	`

	queryClaimSession = `
		UPDATE liveness_sessions
		SET
			claimed_at = :claimed_at,
			updated_at = :claimed_at
		WHERE id = :id AND status = 'active' AND claimed_at IS NULL
	`

	queryEndSession = `
		UPDATE liveness_sessions
		SET
			status = 'ended',
			ended_at = :ended_at,
			updated_at = :ended_at
		WHERE id = :id AND status = 'active'
	`

	queryCreateEvent = `
		INSERT INTO zone_events (
			id,
			session_id,
			from_zone,
			to_zone,
			position,
			compliant,
			centered,
			created_at
		) VALUES (
			:id,
			:session_id,
			:from_zone,
			:to_zone,
			:position,
			:compliant,
			:centered,
			:created_at
		)
	`

	queryListEventsBySessionID = `
		SELECT
			id,
			session_id,
			from_zone,
			to_zone,
			position,
			compliant,
			centered,
			created_at
		FROM zone_events
		WHERE session_id = :session_id
		ORDER BY created_at ASC, id ASC
	`
)
