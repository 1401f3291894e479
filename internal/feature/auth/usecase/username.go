package usecase

import (
	"fmt"
	"strings"
	"time"

	"github.com/gosimple/slug"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	usernameFallback  = "reader"
	usernameMaxBase   = 64
	usernameAlphabet  = "0123456789abcdefghijklmnopqrstuvwxyz"
	usernameSuffixLen = 6
)

// usernameBase slugifies the local part of an email address.
func usernameBase(email string) string {
	local, _, _ := strings.Cut(email, "@")
	base := slug.Make(local)
	if len(base) > usernameMaxBase {
		base = strings.TrimRight(base[:usernameMaxBase], "-")
	}
	if base == "" {
		return usernameFallback
	}
	return base
}

// deriveUsername builds "<base>_<unix millis>", adding a random suffix on retries.
func deriveUsername(email string, now time.Time, attempt int) (string, error) {
	name := fmt.Sprintf("%s_%d", usernameBase(email), now.UnixMilli())
	if attempt == 0 {
		return name, nil
	}
	suffix, err := gonanoid.Generate(usernameAlphabet, usernameSuffixLen)
	if err != nil {
		return "", fmt.Errorf("failed to generate username suffix: %w", err)
	}
	return name + "_" + suffix, nil
}
