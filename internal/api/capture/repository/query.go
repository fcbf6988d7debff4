package captureRepository

const (
	queryUpsertImage = `
		INSERT INTO capture_images (
			id,
			session_id,
			kind,
			object_key,
			width,
			height,
			size_bytes,
			created_at,
			updated_at
		) VALUES (
			:id,
			:session_id,
			:kind,
			:object_key,
			:width,
			:height,
			:size_bytes,
			:created_at,
			:updated_at
		)
		ON CONFLICT (session_id, kind) DO UPDATE SET
			object_key = EXCLUDED.object_key,
			width = EXCLUDED.width,
			height = EXCLUDED.height,
			size_bytes = EXCLUDED.size_bytes,
			updated_at = EXCLUDED.updated_at
		RETURNING
			id,
			session_id,
			kind,
			object_key,
			width,
			height,
			size_bytes,
			created_at,
			updated_at
	`

	queryGetImage = `
		SELECT
			id,
			session_id,
			kind,
			object_key,
			width,
			height,
			size_bytes,
			created_at,
			updated_at
		FROM capture_images
		WHERE session_id = :session_id AND kind = :kind
	`

	queryListImages = `
		SELECT
			id,
			session_id,
			kind,
			object_key,
			width,
			height,
			size_bytes,
			created_at,
			updated_at
		FROM capture_images
		WHERE session_id = :session_id
		ORDER BY kind
	`
)
