// Package tools defines the bot's agent tools: Skyblock stat lookups,
// Minecraft account linking, and reminder management. Each constructor binds
// a tool definition to a handler closed over its dependencies.
package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"disclaude/internal/agent"
	"disclaude/internal/database"
	"disclaude/internal/hypixel"
)

// jsonResult marshals a tool result; handlers always return JSON so the model
// gets structured data.
func jsonResult(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to marshal tool result: %w", err)
	}
	return string(data), nil
}

func stringInput(input map[string]any, key string) (string, error) {
	value, ok := input[key].(string)
	if !ok || value == "" {
		return "", fmt.Errorf("invalid %s parameter", key)
	}
	return value, nil
}

// NewSkyblockStatsTool returns the get_skyblock_stats tool. The user must have
// linked their Minecraft account first.
func NewSkyblockStatsTool(db *database.DB, client *hypixel.Client) (agent.Tool, agent.ToolHandler) {
	tool := agent.Tool{
		Name: "get_skyblock_stats",
		Description: "Get Hypixel Skyblock statistics for a Discord user. " +
			"Returns skill levels, skill average, profile name, slayer XP, purse and bank balance. " +
			"The user must have linked their Minecraft account first using link_minecraft_account.",
		InputSchema: agent.ObjectSchema(map[string]any{
			"discord_id": agent.StringProperty("Discord user ID as a string"),
		}, []string{"discord_id"}),
	}

	handler := func(ctx context.Context, input map[string]any) (string, error) {
		discordID, err := stringInput(input, "discord_id")
		if err != nil {
			return jsonResult(map[string]any{"success": false, "error": err.Error()})
		}

		profile, err := db.GetProfile(discordID)
		if err != nil {
			return "", err
		}
		if profile == nil {
			return jsonResult(map[string]any{
				"success": false,
				"linked":  false,
				"error":   "User needs to link their Minecraft account first",
			})
		}

		active, err := client.ActiveProfile(ctx, profile.MinecraftUUID)
		if err != nil {
			return "", fmt.Errorf("failed to fetch Skyblock profile: %w", err)
		}
		if active == nil {
			return jsonResult(map[string]any{
				"success":  false,
				"username": profile.MinecraftUsername,
				"error":    "No Skyblock profile found; user has not played Hypixel Skyblock",
			})
		}

		member, ok := active.Members[profile.MinecraftUUID]
		if !ok {
			return jsonResult(map[string]any{
				"success": false,
				"error":   "Could not load player data from profile",
			})
		}

		skills := hypixel.AnalyzeSkills(&member)
		slayers := hypixel.AnalyzeSlayers(&member)

		return jsonResult(map[string]any{
			"success":         true,
			"username":        profile.MinecraftUsername,
			"uuid":            profile.MinecraftUUID,
			"profile_name":    active.CuteName,
			"skill_average":   skills.SkillAverage,
			"skills":          skills.Skills,
			"total_slayer_xp": slayers.TotalXP,
			"purse":           member.Currencies.CoinPurse,
			"bank":            active.Banking.Balance,
		})
	}

	return tool, handler
}
