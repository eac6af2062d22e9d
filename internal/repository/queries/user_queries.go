package queries

const (
	QueryCreateUser = `
		INSERT INTO users (email, password_hash, display_name, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id;
	`
	QueryGetUserByID = `
		SELECT id, email, password_hash, display_name, created_at, updated_at
		FROM users
		WHERE id = $1;
	`
	QueryGetUserByEmail = `
		SELECT id, email, password_hash, display_name, created_at, updated_at
		FROM users
		WHERE email = $1;
	`
	QueryExistsUserByEmail = `SELECT 1 FROM users WHERE email = $1;`
	QueryUpdateUserProfile = `
		UPDATE users
		SET display_name = $2, updated_at = $3
		WHERE id = $1;
	`
)
