package cache

import (
	"fmt"
	"time"
)

const (
	HumanKeyPrefix     = "human:%s"
	OTPResendKeyPrefix = "otp:resend:%s"

	// RequestEventsChannel carries request lifecycle events.
	RequestEventsChannel = "requests:events"
)

const (
	HumanTTL     = 60 * time.Second
	OTPResendTTL = 60 * time.Second
)

func HumanKey(humanID string) string {
	return fmt.Sprintf(HumanKeyPrefix, humanID)
}

func OTPResendKey(phone string) string {
	return fmt.Sprintf(OTPResendKeyPrefix, phone)
}
