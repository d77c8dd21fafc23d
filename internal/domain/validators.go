package domain

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	MinPasswordLength = 8
	// MaxPasswordBytes is the bcrypt input limit.
	MaxPasswordBytes  = 72
	maxTeamNameLength = 100
)

var usernameRegex = regexp.MustCompile(`^[A-Za-z0-9_.\-]{3,32}$`)

// ValidateUsername checks the account name format.
func ValidateUsername(username string) error {
	if username == "" {
		return fmt.Errorf("username is required")
	}
	if !usernameRegex.MatchString(username) {
		return fmt.Errorf("username must be 3-32 characters of letters, digits, '_', '.' or '-'")
	}
	return nil
}

// ValidatePassword checks the minimum credential strength.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	}
	if len(password) > MaxPasswordBytes {
		return fmt.Errorf("password must be at most %d bytes", MaxPasswordBytes)
	}
	return nil
}

// ValidateGoals checks a scoreline for negative values.
func ValidateGoals(home, away int) error {
	if home < 0 || away < 0 {
		return fmt.Errorf("scores must be non-negative integers, got %d:%d", home, away)
	}
	return nil
}

// ValidateTeams checks a home/away pair after normalisation.
func ValidateTeams(home, away string) error {
	if home == "" || away == "" {
		return fmt.Errorf("home_team and away_team are required")
	}
	if len(home) > maxTeamNameLength || len(away) > maxTeamNameLength {
		return fmt.Errorf("team names must be at most %d characters", maxTeamNameLength)
	}
	if strings.EqualFold(home, away) {
		return fmt.Errorf("a team cannot play itself")
	}
	return nil
}
