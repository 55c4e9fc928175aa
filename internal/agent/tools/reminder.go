package tools

import (
	"context"
	"fmt"
	"time"

	"disclaude/internal/agent"
	"disclaude/internal/schedule"
)

// SendFunc delivers a message to a Discord channel. The transport supplies it
// so reminder tools stay independent of the Discord session type.
type SendFunc func(channelID, content string) error

// NewCreateReminderTool returns the create_reminder tool. The model supplies
// an absolute RFC 3339 time; natural-language requests normally go through the
// time parser instead, this tool covers reminders the model infers itself.
func NewCreateReminderTool(sched *schedule.Scheduler, send SendFunc) (agent.Tool, agent.ToolHandler) {
	tool := agent.Tool{
		Name: "create_reminder",
		Description: "Create a reminder that will notify the user at a specific time. " +
			"The reminder will be sent as a message in the given channel.",
		InputSchema: agent.ObjectSchema(map[string]any{
			"user_id":    agent.StringProperty("Discord user ID"),
			"channel_id": agent.StringProperty("Discord channel ID where the reminder should be sent"),
			"message":    agent.StringProperty("The reminder message content"),
			"time":       agent.StringProperty("RFC 3339 timestamp when the reminder should fire (e.g. '2024-03-15T14:30:00Z')"),
		}, []string{"user_id", "channel_id", "message", "time"}),
	}

	handler := func(_ context.Context, input map[string]any) (string, error) {
		userID, err := stringInput(input, "user_id")
		if err != nil {
			return jsonResult(map[string]any{"success": false, "error": err.Error()})
		}
		channelID, err := stringInput(input, "channel_id")
		if err != nil {
			return jsonResult(map[string]any{"success": false, "error": err.Error()})
		}
		message, err := stringInput(input, "message")
		if err != nil {
			return jsonResult(map[string]any{"success": false, "error": err.Error()})
		}
		timeStr, err := stringInput(input, "time")
		if err != nil {
			return jsonResult(map[string]any{"success": false, "error": err.Error()})
		}

		fireAt, err := time.Parse(time.RFC3339, timeStr)
		if err != nil {
			return jsonResult(map[string]any{
				"success": false,
				"error":   fmt.Sprintf("Invalid time %q, expected RFC 3339", timeStr),
			})
		}

		taskID, err := sched.Schedule(fireAt, userID, channelID, message, deliverReminder(send))
		if err != nil {
			return jsonResult(map[string]any{"success": false, "error": err.Error()})
		}

		return jsonResult(map[string]any{
			"success":   true,
			"task_id":   taskID,
			"fire_time": fireAt.Format(time.RFC3339),
		})
	}

	return tool, handler
}

// deliverReminder builds the delivery callback shared by all reminder paths.
func deliverReminder(send SendFunc) schedule.DeliverFunc {
	return func(_ context.Context, task schedule.Task) error {
		content := fmt.Sprintf("⏰ **Reminder** <@%s>\n\n%s", task.OwnerID, task.Message)
		return send(task.ChannelID, content)
	}
}

// NewListRemindersTool returns the list_reminders tool.
func NewListRemindersTool(sched *schedule.Scheduler) (agent.Tool, agent.ToolHandler) {
	tool := agent.Tool{
		Name: "list_reminders",
		Description: "List a Discord user's pending reminders, ordered by fire time. " +
			"Returns each reminder's task ID, message and fire time.",
		InputSchema: agent.ObjectSchema(map[string]any{
			"user_id": agent.StringProperty("Discord user ID"),
		}, []string{"user_id"}),
	}

	handler := func(_ context.Context, input map[string]any) (string, error) {
		userID, err := stringInput(input, "user_id")
		if err != nil {
			return jsonResult(map[string]any{"success": false, "error": err.Error()})
		}

		pending := sched.Pending(userID)
		reminders := make([]map[string]any, 0, len(pending))
		for _, task := range pending {
			reminders = append(reminders, map[string]any{
				"task_id":   task.ID,
				"message":   task.Message,
				"fire_time": task.FireAt.Format(time.RFC3339),
			})
		}

		return jsonResult(map[string]any{"success": true, "reminders": reminders})
	}

	return tool, handler
}

// NewCancelReminderTool returns the cancel_reminder tool. Cancellation only
// succeeds for the requesting user's own reminders; the result does not reveal
// whether a foreign task exists.
func NewCancelReminderTool(sched *schedule.Scheduler) (agent.Tool, agent.ToolHandler) {
	tool := agent.Tool{
		Name: "cancel_reminder",
		Description: "Cancel one of the user's pending reminders by task ID. " +
			"Returns whether a pending reminder was canceled.",
		InputSchema: agent.ObjectSchema(map[string]any{
			"user_id": agent.StringProperty("Discord user ID"),
			"task_id": agent.StringProperty("Reminder task ID, e.g. 'reminder_3'"),
		}, []string{"user_id", "task_id"}),
	}

	handler := func(_ context.Context, input map[string]any) (string, error) {
		userID, err := stringInput(input, "user_id")
		if err != nil {
			return jsonResult(map[string]any{"success": false, "error": err.Error()})
		}
		taskID, err := stringInput(input, "task_id")
		if err != nil {
			return jsonResult(map[string]any{"success": false, "error": err.Error()})
		}

		if !sched.Cancel(taskID, userID) {
			return jsonResult(map[string]any{
				"success": false,
				"error":   "No such pending reminder",
			})
		}
		return jsonResult(map[string]any{"success": true, "task_id": taskID})
	}

	return tool, handler
}
