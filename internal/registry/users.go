// ============================================================================
// Registro de Usuarios - TrenCL
// ============================================================================

package registry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	"golang.org/x/crypto/bcrypt"

	"github.com/yourorg/trencl/internal/models"
	"github.com/yourorg/trencl/internal/validation"
)

// Users administra el alta y baja de usuarios en MySQL.
type Users struct {
	db *sql.DB
}

// NewUsers crea el registro de usuarios.
func NewUsers(db *sql.DB) *Users {
	return &Users{db: db}
}

// AddUser registra un usuario nuevo. El email se valida con el patrón
// RFC-lite y debe ser único; el password se guarda como hash bcrypt
// (nunca en claro).
func (u *Users) AddUser(ctx context.Context, email, password string, isAdmin bool) (*models.User, error) {
	if err := validation.ValidateEmail(email); err != nil {
		return nil, err
	}

	var exists bool
	err := u.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM users WHERE email = ?)", email,
	).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("%w: check user email: %v", models.ErrStoreFailure, err)
	}
	if exists {
		return nil, fmt.Errorf("%w: user %s already exists", models.ErrConflict, email)
	}

	var hash sql.NullString
	if password != "" {
		h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("%w: hash password: %v", models.ErrStoreFailure, err)
		}
		hash = sql.NullString{String: string(h), Valid: true}
	}

	res, err := u.db.ExecContext(ctx,
		"INSERT INTO users (email, password_hash, is_admin) VALUES (?, ?, ?)",
		email, hash, isAdmin,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: insert user: %v", models.ErrStoreFailure, err)
	}
	id, _ := res.LastInsertId()

	log.Printf("✅ [USERS] Usuario registrado: %s (id=%d)", email, id)
	return &models.User{ID: id, Email: email, PasswordHash: hash.String, IsAdmin: isAdmin}, nil
}

// GetUserByEmail busca un usuario por email.
func (u *Users) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var usr models.User
	var hash sql.NullString
	err := u.db.QueryRowContext(ctx,
		"SELECT id, email, password_hash, is_admin FROM users WHERE email = ?", email,
	).Scan(&usr.ID, &usr.Email, &hash, &usr.IsAdmin)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: user %s", models.ErrNotFound, email)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: query user: %v", models.ErrStoreFailure, err)
	}
	usr.PasswordHash = hash.String
	return &usr, nil
}

// ListUsers retorna todos los usuarios ordenados por id, sin hashes.
func (u *Users) ListUsers(ctx context.Context) ([]models.User, error) {
	rows, err := u.db.QueryContext(ctx, "SELECT id, email, is_admin FROM users ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("%w: list users: %v", models.ErrStoreFailure, err)
	}
	defer rows.Close()

	var list []models.User
	for rows.Next() {
		var usr models.User
		if err := rows.Scan(&usr.ID, &usr.Email, &usr.IsAdmin); err != nil {
			return nil, fmt.Errorf("%w: scan user: %v", models.ErrStoreFailure, err)
		}
		list = append(list, usr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate users: %v", models.ErrStoreFailure, err)
	}
	return list, nil
}

// DeleteUser elimina un usuario junto con sus tickets y reservas de
// asientos, todo en una transacción.
func (u *Users) DeleteUser(ctx context.Context, email string) error {
	tx, err := u.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin delete user: %v", models.ErrStoreFailure, err)
	}
	defer tx.Rollback()

	var userID int64
	err = tx.QueryRowContext(ctx, "SELECT id FROM users WHERE email = ?", email).Scan(&userID)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: user %s", models.ErrNotFound, email)
	}
	if err != nil {
		return fmt.Errorf("%w: query user: %v", models.ErrStoreFailure, err)
	}

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM seat_reservations WHERE ticket_id IN (SELECT id FROM tickets WHERE user_id = ?)",
		userID,
	); err != nil {
		return fmt.Errorf("%w: delete seat reservations: %v", models.ErrStoreFailure, err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM tickets WHERE user_id = ?", userID); err != nil {
		return fmt.Errorf("%w: delete tickets: %v", models.ErrStoreFailure, err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM users WHERE id = ?", userID); err != nil {
		return fmt.Errorf("%w: delete user: %v", models.ErrStoreFailure, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit delete user: %v", models.ErrStoreFailure, err)
	}
	log.Printf("🗑️ [USERS] Usuario eliminado: %s (id=%d)", email, userID)
	return nil
}
