package user

const (
	userColumns = `id, first_name, last_name, email, phone_number, gender, profile_picture, created_at, updated_at`

	SelectUsers = `
		SELECT ` + userColumns + `
		FROM users
		ORDER BY created_at, id
	`
	SelectUserByID = `
		SELECT ` + userColumns + `
		FROM users
		WHERE id = $1
	`
	SelectUserByEmail = `
		SELECT ` + userColumns + `
		FROM users
		WHERE email = $1
	`
	InsertUser = `
		INSERT INTO users (first_name, last_name, email, phone_number, gender, profile_picture)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + userColumns
	DeleteUserByID = `
		DELETE FROM users
		WHERE id = $1
		RETURNING ` + userColumns
)
