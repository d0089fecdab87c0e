package notification

import (
	"fmt"
	"time"
)

func WelcomeMessage(name, code, phone, email string) Message {
	return Message{
		ToPhone: phone,
		ToEmail: email,
		Subject: "Your CallSync pairing code",
		Text: fmt.Sprintf(
			"Hello %s, your CallSync pairing code is %s. Enter it in the CallSync app to link your device.",
			name, code,
		),
	}
}

func TempCodeMessage(name, code, phone, email string, ttl time.Duration) Message {
	return Message{
		ToPhone: phone,
		ToEmail: email,
		Subject: "Your CallSync one-time code",
		Text: fmt.Sprintf(
			"Hello %s, your CallSync one-time code is %s. It expires in %d minutes and can be used once.",
			name, code, int(ttl.Minutes()),
		),
	}
}
