package models

type BodyType string

const (
	PlainBody BodyType = "text/plain"
	HTMLBody  BodyType = "text/html"
)

// Mailbox is a display name plus address.
type Mailbox struct {
	Name    string `json:"name" env:"NAME" envDefault:"API Monitoring System"`
	Address string `json:"address" env:"EMAIL"`
}

// Attachment is a single named file carried by an email.
type Attachment struct {
	Name string `json:"name"`
	Data []byte `json:"-"`
}

// EmailMessage is one outbound email. It carries exactly one body kind.
type EmailMessage struct {
	From       Mailbox     `json:"from"`
	To         string      `json:"to"`
	Subject    string      `json:"subject"`
	Body       string      `json:"body"`
	BodyType   BodyType    `json:"body_type"`
	Attachment *Attachment `json:"attachment,omitempty"` // nil for body-only messages
}

// Outcome is the single user-visible result of a report flow.
type Outcome struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func Succeeded(msg string) Outcome {
	return Outcome{Success: true, Message: msg}
}

func Failed(msg string) Outcome {
	return Outcome{Success: false, Message: msg}
}
