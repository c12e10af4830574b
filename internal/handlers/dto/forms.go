package dto

// SignupForm is posted by the signup page.
type SignupForm struct {
	Username string `form:"username" binding:"required,notblank,max=50"`
	Email    string `form:"email" binding:"required,email"`
	Password string `form:"password" binding:"required,min=6"`
	ImageURL string `form:"image_url" binding:"max=255"`
}

// LoginForm is shared by the login page and the JSON API.
type LoginForm struct {
	Username string `form:"username" json:"username" binding:"required,notblank"`
	Password string `form:"password" json:"password" binding:"required"`
}

// ProfileForm edits the current user. Password confirms the change and is
// never stored from here.
type ProfileForm struct {
	Username       string `form:"username" binding:"required,notblank,max=50"`
	Email          string `form:"email" binding:"required,email"`
	ImageURL       string `form:"image_url" binding:"max=255"`
	HeaderImageURL string `form:"header_image_url" binding:"max=255"`
	Bio            string `form:"bio" binding:"max=500"`
	Location       string `form:"location" binding:"max=100"`
	Password       string `form:"password" binding:"required"`
}

type MessageForm struct {
	Text string `form:"text" json:"text" binding:"required,notblank,max=140"`
}
