// Package config loads run defaults from the environment. Flags on the
// CLI override whatever is loaded here.
package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	LogLevel       string
	PromptDelay    time.Duration
	Timeout        time.Duration
	PollInterval   time.Duration
	MergeStderr    bool
	Verbose        bool
	Debug          bool
	TranscriptPath string
	MonitorAddr    string
}

func LoadConfig() Config {
	level := os.Getenv("ANSWERBACK_LOG_LEVEL")
	if level == "" {
		level = "info"
	}

	return Config{
		LogLevel:       level,
		PromptDelay:    durationOrDefault(os.Getenv("ANSWERBACK_PROMPT_DELAY"), time.Second),
		Timeout:        durationOrDefault(os.Getenv("ANSWERBACK_TIMEOUT"), 120*time.Second),
		PollInterval:   durationOrDefault(os.Getenv("ANSWERBACK_POLL_INTERVAL"), 100*time.Millisecond),
		MergeStderr:    os.Getenv("ANSWERBACK_MERGE_STDERR") == "1",
		Verbose:        os.Getenv("ANSWERBACK_QUIET") != "1",
		Debug:          os.Getenv("ANSWERBACK_DEBUG") == "1",
		TranscriptPath: os.Getenv("ANSWERBACK_TRANSCRIPT_DB"),
		MonitorAddr:    os.Getenv("ANSWERBACK_MONITOR_ADDR"),
	}
}

// durationOrDefault accepts Go duration strings ("1.5s") and bare
// numbers, which are read as seconds.
func durationOrDefault(v string, fallback time.Duration) time.Duration {
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil && d > 0 {
		return d
	}
	if secs, err := strconv.ParseFloat(v, 64); err == nil && secs > 0 {
		return time.Duration(secs * float64(time.Second))
	}
	return fallback
}
