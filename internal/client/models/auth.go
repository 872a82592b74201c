package models

// Credentials is the body of the login endpoint.
type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// NewUser is the body of the registration endpoint.
type NewUser struct {
	Name        string `json:"name" validate:"required,max=120"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=6"`
	PhoneNumber string `json:"phone_number,omitempty" validate:"omitempty,max=32"`
}

// LoginResponse is what the backend returns on a successful login.
type LoginResponse struct {
	Message     string      `json:"message"`
	AccessToken string      `json:"access_token"`
	TokenType   string      `json:"token_type"`
	User        UserProfile `json:"user"`
}

// ProfileUpdate changes the owner's name and/or address. Nil fields are
// left untouched by the backend.
type ProfileUpdate struct {
	Name    *string `json:"name,omitempty" validate:"omitempty,min=1,max=120"`
	Address *string `json:"address,omitempty" validate:"omitempty,max=255"`
}

// ContactChange asks the backend to send a one-time code to a new email or
// phone number. Exactly one of the two must be set.
type ContactChange struct {
	NewEmail string `json:"new_email,omitempty" validate:"required_without=NewPhone,excluded_with=NewPhone"`
	NewPhone string `json:"new_phone,omitempty" validate:"required_without=NewEmail,excluded_with=NewEmail"`
}

// ContactVerification confirms a ContactChange with the received code.
type ContactVerification struct {
	OTP string `json:"otp" validate:"required,numeric"`
	ContactChange
}

// Message is the generic {"message": "..."} acknowledgement body.
type Message struct {
	Message string `json:"message"`
}
