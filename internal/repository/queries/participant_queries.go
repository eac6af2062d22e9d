package queries

const (
	QueryParticipantExists = `
		SELECT EXISTS(SELECT 1 FROM participants WHERE room_id = $1 AND user_id = $2);
	`
	QueryGetParticipant = `
		SELECT room_id, user_id, joined_at
		FROM participants
		WHERE room_id = $1 AND user_id = $2;
	`
	QueryCountParticipants = `SELECT COUNT(*) FROM participants WHERE room_id = $1;`

	QueryLockRoomForJoin = `
		SELECT status, max_participants FROM rooms WHERE id = $1 FOR UPDATE;
	`
	QueryInsertParticipant = `
		INSERT INTO participants (room_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (room_id, user_id) DO NOTHING
		RETURNING joined_at;
	`
	QueryDeleteParticipant = `
		DELETE FROM participants WHERE room_id = $1 AND user_id = $2;
	`
	QueryListParticipants = `
		SELECT room_id, user_id, joined_at
		FROM participants
		WHERE room_id = $1
		ORDER BY joined_at ASC;
	`
	QueryListParticipantsDetailed = `
		SELECT p.room_id, p.user_id, u.email, u.display_name, p.joined_at
		FROM participants AS p
		LEFT JOIN users AS u ON u.id = p.user_id
		WHERE p.room_id = $1
		ORDER BY p.joined_at ASC;
	`
)
