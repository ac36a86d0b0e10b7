package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
)

func main() {
	api := os.Getenv("PINGMON_API")
	if api == "" {
		api = "http://localhost:8080"
	}

	reader := bufio.NewReader(os.Stdin)
	alias := prompt(reader, "Alias (e.g. gateway): ")
	host := prompt(reader, "Host or IP (e.g. 192.168.1.1): ")
	if host == "" {
		fmt.Println("Host is required.")
		return
	}
	interval := promptInt(reader, "Interval seconds [60]: ", 60)
	timeout := promptInt(reader, "Timeout ms [1000]: ", 1000)

	body, _ := json.Marshal(map[string]any{
		"alias":    alias,
		"host":     host,
		"interval": interval,
		"timeout":  timeout,
		"enabled":  true,
	})
	resp, err := http.Post(api+"/api/targets", "application/json", bytes.NewReader(body))
	if err != nil {
		fmt.Println("Error contacting API:", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		fmt.Println("Added! Check GET /api/status for live state.")
	} else {
		fmt.Println("API returned status:", resp.Status)
	}
}

func prompt(r *bufio.Reader, label string) string {
	fmt.Print(label)
	raw, _ := r.ReadString('\n')
	return strings.TrimSpace(raw)
}

func promptInt(r *bufio.Reader, label string, def int) int {
	raw := prompt(r, label)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return def
	}
	return n
}
