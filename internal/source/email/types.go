package email

// Config holds the IMAP server settings for reading a mailbox.
type Config struct {
	Host     string
	Port     string
	Username string
	Password string
	TLS      bool

	// Mailbox is the folder to scan; INBOX when empty.
	Mailbox string

	// BatchSize is how many messages are fetched per FETCH command.
	BatchSize int
}

// defaultBatchSize keeps each FETCH response to a few megabytes for
// typical mail.
const defaultBatchSize = 100
