// ravenctl is a small control client for a running ravend daemon.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

func main() {
	if err := buildRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func buildRootCmd() *cobra.Command {
	addr := "http://127.0.0.1:8080"
	if v := os.Getenv("RAVEND_ADDR"); v != "" {
		addr = v
	}

	root := &cobra.Command{
		Use:           "ravenctl",
		Short:         "Control client for the ravend model manager",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&addr, "addr", addr, "Base URL of the ravend daemon")

	client := &http.Client{Timeout: 30 * time.Second}

	statusCmd := &cobra.Command{Use: "status", Short: "Show system status", RunE: func(cmd *cobra.Command, args []string) error {
		return get(client, addr+"/status")
	}}
	modelsCmd := &cobra.Command{Use: "models", Short: "List registered models", RunE: func(cmd *cobra.Command, args []string) error {
		return get(client, addr+"/models")
	}}

	var selType string
	var selMaxSize int64
	var selHardware []string
	var selBatching bool
	selectCmd := &cobra.Command{Use: "select", Short: "Select and admit a model for a task", RunE: func(cmd *cobra.Command, args []string) error {
		body := map[string]any{}
		if selType != "" {
			body["declared_type"] = selType
		}
		if selMaxSize > 0 {
			body["max_size_bytes"] = selMaxSize
		}
		if len(selHardware) > 0 {
			body["required_hardware"] = selHardware
		}
		if selBatching {
			body["requires_batching"] = true
		}
		return post(client, addr+"/select", body)
	}}
	selectCmd.Flags().StringVar(&selType, "type", "", "Required model type (generative-text, embedding)")
	selectCmd.Flags().Int64Var(&selMaxSize, "max-size", 0, "Maximum artifact size in bytes")
	selectCmd.Flags().StringSliceVar(&selHardware, "hardware", nil, "Required accelerator kinds")
	selectCmd.Flags().BoolVar(&selBatching, "batching", false, "Require batching support")

	prefsCmd := &cobra.Command{Use: "prefs", Short: "Show active preferences", RunE: func(cmd *cobra.Command, args []string) error {
		return get(client, addr+"/preferences")
	}}

	var mode, accuracy string
	var memFraction float64
	var devices []string
	var adaptive bool
	prefsSetCmd := &cobra.Command{Use: "set", Short: "Replace active preferences", RunE: func(cmd *cobra.Command, args []string) error {
		body := map[string]any{
			"performance_mode":          mode,
			"accuracy_preference":       accuracy,
			"max_memory_fraction":       memFraction,
			"preferred_devices":         devices,
			"enable_adaptive_selection": adaptive,
		}
		return put(client, addr+"/preferences", body)
	}}
	prefsSetCmd.Flags().StringVar(&mode, "mode", "balanced", "Performance mode: speed|memory|balanced")
	prefsSetCmd.Flags().StringVar(&accuracy, "accuracy", "medium", "Accuracy preference: high|medium|low")
	prefsSetCmd.Flags().Float64Var(&memFraction, "mem-fraction", 0.7, "Max memory fraction in (0,1]")
	prefsSetCmd.Flags().StringSliceVar(&devices, "devices", []string{"cpu"}, "Preferred device kinds in priority order")
	prefsSetCmd.Flags().BoolVar(&adaptive, "adaptive", true, "Enable adaptive selection")
	prefsCmd.AddCommand(prefsSetCmd)

	cleanupCmd := &cobra.Command{Use: "cleanup", Short: "Release all resident models", RunE: func(cmd *cobra.Command, args []string) error {
		return post(client, addr+"/cleanup", nil)
	}}

	root.AddCommand(statusCmd, modelsCmd, selectCmd, prefsCmd, cleanupCmd)
	return root
}

func get(c *http.Client, url string) error {
	resp, err := c.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return printResponse(resp)
}

func post(c *http.Client, url string, body any) error {
	return send(c, http.MethodPost, url, body)
}

func put(c *http.Client, url string, body any) error {
	return send(c, http.MethodPut, url, body)
}

func send(c *http.Client, method, url string, body any) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return printResponse(resp)
}

func printResponse(resp *http.Response) error {
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if len(b) > 0 {
		var pretty bytes.Buffer
		if json.Indent(&pretty, b, "", "  ") == nil {
			fmt.Println(pretty.String())
		} else {
			fmt.Println(string(b))
		}
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("%s", resp.Status)
	}
	return nil
}
