package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"example.com/hydration/internal/domain"
)

const userColumns = `user_id, email, role, status, created_at`

func scanUser(row pgx.Row) (domain.User, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.Email, &u.Role, &u.Status, &u.CreatedAt)
	return u, err
}

// GetUser implements domain.UserRepository.
func (r *Repository) GetUser(ctx context.Context, id string) (*domain.User, error) {
	user, err := scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE user_id = $1`, id))
	if missing(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// FindUserByEmail implements domain.UserRepository.
func (r *Repository) FindUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	user, err := scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, email))
	if missing(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// CreateUser implements domain.UserRepository.
func (r *Repository) CreateUser(ctx context.Context, user domain.User) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO users (user_id, email, role, status, created_at) VALUES ($1,$2,$3,$4,$5)`,
		user.ID, user.Email, user.Role, user.Status, user.CreatedAt,
	)
	if err != nil {
		return translate(err, "user with email "+user.Email+" already exists", "User", user.ID)
	}
	return nil
}

const profileColumns = `profile_id, user_id, weight_kg, COALESCE(activity_level, ''), COALESCE(goal_type, ''), date_of_birth, created_at, updated_at`

func scanProfile(row pgx.Row) (domain.UserProfile, error) {
	var (
		p     domain.UserProfile
		level string
		goal  string
	)
	err := row.Scan(&p.ID, &p.UserID, &p.WeightKg, &level, &goal, &p.DateOfBirth, &p.CreatedAt, &p.UpdatedAt)
	p.ActivityLevel = domain.ActivityLevel(level)
	p.GoalType = domain.GoalType(goal)
	return p, err
}

func nullEnum[T ~string](value T) any {
	if value == "" {
		return nil
	}
	return string(value)
}

// GetProfile implements domain.ProfileRepository.
func (r *Repository) GetProfile(ctx context.Context, id string) (*domain.UserProfile, error) {
	profile, err := scanProfile(r.pool.QueryRow(ctx, `SELECT `+profileColumns+` FROM user_profiles WHERE profile_id = $1`, id))
	if missing(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// FindProfileByUser implements domain.ProfileRepository.
func (r *Repository) FindProfileByUser(ctx context.Context, userID string) (*domain.UserProfile, error) {
	profile, err := scanProfile(r.pool.QueryRow(ctx, `SELECT `+profileColumns+` FROM user_profiles WHERE user_id = $1`, userID))
	if missing(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// CreateProfile implements domain.ProfileRepository.
func (r *Repository) CreateProfile(ctx context.Context, profile domain.UserProfile) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO user_profiles (profile_id, user_id, weight_kg, activity_level, goal_type, date_of_birth, created_at, updated_at)
         VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		profile.ID, profile.UserID, profile.WeightKg, nullEnum(profile.ActivityLevel), nullEnum(profile.GoalType),
		profile.DateOfBirth, profile.CreatedAt, profile.UpdatedAt,
	)
	if err != nil {
		return translate(err, "profile for user "+profile.UserID+" already exists", "User", profile.UserID)
	}
	return nil
}

// UpdateProfile implements domain.ProfileRepository.
func (r *Repository) UpdateProfile(ctx context.Context, profile domain.UserProfile) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE user_profiles
            SET weight_kg = $2, activity_level = $3, goal_type = $4, date_of_birth = $5, updated_at = $6
          WHERE profile_id = $1`,
		profile.ID, profile.WeightKg, nullEnum(profile.ActivityLevel), nullEnum(profile.GoalType),
		profile.DateOfBirth, profile.UpdatedAt,
	)
	if err != nil {
		return translate(err, "profile conflict", "UserProfile", profile.ID)
	}
	return expectOne(tag, "UserProfile", profile.ID)
}
