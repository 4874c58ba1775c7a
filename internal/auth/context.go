package auth

// UserContext carries the authenticated user identity extracted from the JWT
type UserContext struct {
	UserID     string
	TelegramID int64
}
