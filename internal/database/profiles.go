package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Profile links a Discord user to their Minecraft account.
type Profile struct {
	DiscordID         string
	MinecraftUsername string
	MinecraftUUID     string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// LinkProfile stores (or replaces) the Minecraft link for a Discord user.
func (d *DB) LinkProfile(discordID, minecraftUsername, minecraftUUID string) error {
	_, err := d.Exec(`
		INSERT INTO user_profiles (discord_id, minecraft_username, minecraft_uuid)
		VALUES (?, ?, ?)
		ON CONFLICT(discord_id) DO UPDATE SET
			minecraft_username = excluded.minecraft_username,
			minecraft_uuid = excluded.minecraft_uuid,
			updated_at = CURRENT_TIMESTAMP
	`, discordID, minecraftUsername, minecraftUUID)
	if err != nil {
		return fmt.Errorf("failed to link profile: %w", err)
	}
	return nil
}

// GetProfile returns the Minecraft link for a Discord user, or nil when the
// user has not linked an account.
func (d *DB) GetProfile(discordID string) (*Profile, error) {
	var p Profile
	err := d.QueryRow(`
		SELECT discord_id, minecraft_username, minecraft_uuid, created_at, updated_at
		FROM user_profiles
		WHERE discord_id = ?
	`, discordID).Scan(&p.DiscordID, &p.MinecraftUsername, &p.MinecraftUUID, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return &p, nil
}

// IsLinked reports whether a Discord user has linked a Minecraft account.
func (d *DB) IsLinked(discordID string) (bool, error) {
	var count int
	err := d.QueryRow(`SELECT COUNT(*) FROM user_profiles WHERE discord_id = ?`, discordID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check link status: %w", err)
	}
	return count > 0, nil
}

// UnlinkProfile removes a user's Minecraft link. Returns true only when this
// call removed a row.
func (d *DB) UnlinkProfile(discordID string) (bool, error) {
	result, err := d.Exec(`DELETE FROM user_profiles WHERE discord_id = ?`, discordID)
	if err != nil {
		return false, fmt.Errorf("failed to unlink profile: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// CountProfiles returns the number of linked accounts.
func (d *DB) CountProfiles() (int, error) {
	var count int
	err := d.QueryRow(`SELECT COUNT(*) FROM user_profiles`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count profiles: %w", err)
	}
	return count, nil
}
