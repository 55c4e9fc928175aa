package tools

import (
	"context"
	"fmt"

	"disclaude/internal/agent"
	"disclaude/internal/database"
	"disclaude/internal/hypixel"
)

// NewLinkAccountTool returns the link_minecraft_account tool: it resolves the
// username to a UUID via Mojang and stores the link.
func NewLinkAccountTool(db *database.DB, client *hypixel.Client) (agent.Tool, agent.ToolHandler) {
	tool := agent.Tool{
		Name: "link_minecraft_account",
		Description: "Link a Discord user to their Minecraft account. " +
			"Fetches the UUID from the Mojang API and stores the link in the database. " +
			"Linking again replaces any previous link.",
		InputSchema: agent.ObjectSchema(map[string]any{
			"discord_id":         agent.StringProperty("Discord user ID as a string"),
			"minecraft_username": agent.StringProperty("Minecraft username (case-insensitive)"),
		}, []string{"discord_id", "minecraft_username"}),
	}

	handler := func(ctx context.Context, input map[string]any) (string, error) {
		discordID, err := stringInput(input, "discord_id")
		if err != nil {
			return jsonResult(map[string]any{"success": false, "error": err.Error()})
		}
		username, err := stringInput(input, "minecraft_username")
		if err != nil {
			return jsonResult(map[string]any{"success": false, "error": err.Error()})
		}

		uuid, err := client.UUIDFromUsername(ctx, username)
		if err != nil {
			return "", fmt.Errorf("failed to resolve username: %w", err)
		}
		if uuid == "" {
			return jsonResult(map[string]any{
				"success": false,
				"error":   fmt.Sprintf("No Minecraft account found for username %q", username),
			})
		}

		if err := db.LinkProfile(discordID, username, uuid); err != nil {
			return "", err
		}

		return jsonResult(map[string]any{
			"success":  true,
			"username": username,
			"uuid":     uuid,
		})
	}

	return tool, handler
}

// NewLinkStatusTool returns the check_user_link_status tool.
func NewLinkStatusTool(db *database.DB) (agent.Tool, agent.ToolHandler) {
	tool := agent.Tool{
		Name: "check_user_link_status",
		Description: "Check if a Discord user has linked their Minecraft account. " +
			"Returns the linked username and UUID if available.",
		InputSchema: agent.ObjectSchema(map[string]any{
			"discord_id": agent.StringProperty("Discord user ID as a string"),
		}, []string{"discord_id"}),
	}

	handler := func(_ context.Context, input map[string]any) (string, error) {
		discordID, err := stringInput(input, "discord_id")
		if err != nil {
			return jsonResult(map[string]any{"success": false, "error": err.Error()})
		}

		profile, err := db.GetProfile(discordID)
		if err != nil {
			return "", err
		}
		if profile == nil {
			return jsonResult(map[string]any{"success": true, "linked": false})
		}

		return jsonResult(map[string]any{
			"success":  true,
			"linked":   true,
			"username": profile.MinecraftUsername,
			"uuid":     profile.MinecraftUUID,
		})
	}

	return tool, handler
}
