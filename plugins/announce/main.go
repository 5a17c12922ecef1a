// Package main provides the announce plugin. "say" reports the spell as
// "<SPELL>!!!"; "speak" also reads it aloud with the platform's speech
// command when one is installed.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
)

// Request represents the input from the plugin executor.
type Request struct {
	Action string          `json:"action"`
	Spell  string          `json:"spell"`
	Config json.RawMessage `json:"config"`
	Params json.RawMessage `json:"params"`
}

// Response represents the output to the plugin executor.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Config is the per-binding configuration.
type Config struct {
	Voice  string `json:"voice"`
	Suffix string `json:"suffix"`
}

func main() {
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeErrorResponse(fmt.Sprintf("failed to decode request: %v", err))
		return
	}

	spell := strings.TrimSpace(req.Spell)
	if spell == "" {
		writeErrorResponse("spell is required")
		return
	}

	cfg := Config{Suffix: "!!!"}
	if len(req.Config) > 0 {
		if err := json.Unmarshal(req.Config, &cfg); err != nil {
			writeErrorResponse(fmt.Sprintf("failed to parse config: %v", err))
			return
		}
	}
	message := spell + cfg.Suffix

	switch req.Action {
	case "say":
	case "speak":
		if err := speak(spell, cfg.Voice); err != nil {
			writeErrorResponse(fmt.Sprintf("action speak failed: %v", err))
			return
		}
	default:
		writeErrorResponse(fmt.Sprintf("unknown action: %s", req.Action))
		return
	}

	fmt.Fprintln(os.Stderr, message)
	data, _ := json.Marshal(map[string]string{"message": message})
	json.NewEncoder(os.Stdout).Encode(Response{Success: true, Data: data})
}

// speak reads text aloud with say on macOS or espeak elsewhere.
func speak(text, voice string) error {
	name, args := "espeak", []string{}
	if runtime.GOOS == "darwin" {
		name = "say"
	}
	if voice != "" {
		args = append(args, "-v", voice)
	}
	args = append(args, text)

	if _, err := exec.LookPath(name); err != nil {
		return fmt.Errorf("%s not installed", name)
	}
	out, err := exec.Command(name, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, string(out))
	}
	return nil
}

func writeErrorResponse(errMsg string) {
	json.NewEncoder(os.Stdout).Encode(Response{Success: false, Error: errMsg})
}
