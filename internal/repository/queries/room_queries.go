package queries

const (
	QueryCreateRoom = `
		INSERT INTO rooms (name, status, created_by, max_participants)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at;
	`
	QueryGetRoom = `
		SELECT id, name, status, created_by, max_participants, created_at
		FROM rooms
		WHERE id = $1;
	`
	QueryListOpenRooms = `
		SELECT id, name, status, created_by, max_participants, created_at
		FROM rooms
		WHERE status IN ('waiting', 'active')
		  AND ($1::timestamptz IS NULL OR created_at < $1
		       OR (created_at = $1 AND id < $2))
		ORDER BY created_at DESC, id DESC
		LIMIT $3;
	`
	// Guarded update: строка меняется только из ожидаемого статуса.
	QueryUpdateRoomStatus = `
		UPDATE rooms
		SET status = $3
		WHERE id = $1 AND status = $2
		RETURNING id, name, status, created_by, max_participants, created_at;
	`
	QueryDeleteRoom = `DELETE FROM rooms WHERE id = $1;`
)
