package entity

// UserLoginData is the identity carried by the upstream access token.
type UserLoginData struct {
	ID       string
	Username string
	Email    string
}
