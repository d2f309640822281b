package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/spf13/cobra"
)

var realtimeCmd = &cobra.Command{
	Use:   "realtime",
	Short: "Inspect the realtime layer",
	Long:  "Commands for checking online users and realtime connection metrics",
}

var onlineCmd = &cobra.Command{
	Use:   "online [user-id...]",
	Short: "Check which users are online",
	Long: `Without arguments, lists every user currently holding a live session.
With user IDs, reports each one's online status.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return listOnlineUsers()
		}
		return checkOnlineStatus(args)
	},
}

var wsMetricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Show realtime connection metrics",
	RunE: func(cmd *cobra.Command, args []string) error {
		return showRealtimeMetrics()
	},
}

func init() {
	realtimeCmd.AddCommand(onlineCmd)
	realtimeCmd.AddCommand(wsMetricsCmd)
}

// apiGet performs an authenticated GET and returns the body on 2xx.
func apiGet(path string) ([]byte, error) {
	req, err := http.NewRequest("GET", apiURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+authToken)

	return doRequest(req)
}

// apiPost performs an authenticated JSON POST and returns the body on 2xx.
func apiPost(path string, payload interface{}) ([]byte, error) {
	bodyBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequest("POST", apiURL+path, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+authToken)
	req.Header.Set("Content-Type", "application/json")

	return doRequest(req)
}

func doRequest(req *http.Request) ([]byte, error) {
	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp map[string]interface{}
		json.Unmarshal(body, &errResp)
		if msg, ok := errResp["message"].(string); ok {
			return nil, fmt.Errorf("API error: %s", msg)
		}
		return nil, fmt.Errorf("API error: status %d", resp.StatusCode)
	}

	return body, nil
}

func listOnlineUsers() error {
	body, err := apiGet("/api/v1/ws/metrics")
	if err != nil {
		return err
	}

	if output == "json" {
		fmt.Println(string(body))
		return nil
	}

	var result struct {
		OnlineUsers []string `json:"online_users"`
		Connections int      `json:"connections"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	fmt.Printf("Online users (%d):\n", len(result.OnlineUsers))
	for _, id := range result.OnlineUsers {
		fmt.Printf("  %s\n", id)
	}
	return nil
}

func checkOnlineStatus(userIDs []string) error {
	body, err := apiPost("/api/v1/ws/online", map[string]interface{}{
		"user_ids": userIDs,
	})
	if err != nil {
		return err
	}

	if output == "json" {
		fmt.Println(string(body))
		return nil
	}

	var result struct {
		Statuses map[string]bool `json:"statuses"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	for _, id := range userIDs {
		status := "offline"
		if result.Statuses[id] {
			status = "online"
		}
		fmt.Printf("%s: %s\n", id, status)
	}
	return nil
}

func showRealtimeMetrics() error {
	body, err := apiGet("/api/v1/ws/metrics")
	if err != nil {
		return err
	}

	if output == "json" {
		fmt.Println(string(body))
		return nil
	}

	var result struct {
		OnlineUsers []string `json:"online_users"`
		Connections int      `json:"connections"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	fmt.Printf("Connections: %d\n", result.Connections)
	fmt.Printf("Online users: %d\n", len(result.OnlineUsers))
	return nil
}
