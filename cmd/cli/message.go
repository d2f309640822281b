package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var messageCmd = &cobra.Command{
	Use:   "message",
	Short: "Send and read direct messages",
}

var sendMessageCmd = &cobra.Command{
	Use:   "send <user-id> <text>",
	Short: "Send a direct message to a user",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return sendMessage(args[0], args[1])
	},
}

var historyCmd = &cobra.Command{
	Use:   "history <user-id>",
	Short: "Show the full conversation with a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return showHistory(args[0])
	},
}

func init() {
	messageCmd.AddCommand(sendMessageCmd)
	messageCmd.AddCommand(historyCmd)
}

func sendMessage(userID, text string) error {
	body, err := apiPost("/api/v1/message/send/"+userID, map[string]interface{}{
		"textMessage": text,
	})
	if err != nil {
		return err
	}

	if output == "json" {
		fmt.Println(string(body))
		return nil
	}

	fmt.Println("Message sent")
	return nil
}

func showHistory(userID string) error {
	body, err := apiGet("/api/v1/message/all/" + userID)
	if err != nil {
		return err
	}

	if output == "json" {
		fmt.Println(string(body))
		return nil
	}

	var result struct {
		Messages []struct {
			SenderID string `json:"senderId"`
			Message  string `json:"message"`
		} `json:"messages"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if len(result.Messages) == 0 {
		fmt.Println("No messages yet")
		return nil
	}
	for _, m := range result.Messages {
		fmt.Printf("[%s] %s\n", m.SenderID, m.Message)
	}
	return nil
}
