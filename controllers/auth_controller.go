package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"gorm.io/gorm"

	"github.com/bondlyapp/bondly/config"
	"github.com/bondlyapp/bondly/models"
	"github.com/bondlyapp/bondly/utils"
)

// AuthController handles registration, login and profile endpoints.
type AuthController struct {
	db *gorm.DB
}

// NewAuthController creates an AuthController.
func NewAuthController(db *gorm.DB) *AuthController {
	return &AuthController{db: db}
}

func tokenTTL() time.Duration {
	return time.Duration(config.Get().TokenTTLHours) * time.Hour
}

// Register creates a local account with bcrypt hashing and issues a JWT.
func (a *AuthController) Register(ctx *gin.Context) {
	type request struct {
		Username string `json:"username" binding:"required,min=2,max=64"`
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required,min=6,max=72"`
		Language string `json:"preferred_language"`
	}

	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40001, "invalid request payload")
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	var existing models.User
	if err := a.db.Where("email = ?", email).First(&existing).Error; err == nil {
		utils.Error(ctx, http.StatusConflict, 40901, "email already registered")
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50001, "failed to hash password")
		return
	}

	lang := "en"
	if req.Language == "hi" {
		lang = "hi"
	}

	user := models.User{
		Username:          utils.Sanitize(strings.TrimSpace(req.Username)),
		Email:             email,
		PasswordHash:      hash,
		PreferredLanguage: lang,
	}

	if err := a.createWithInvitationCode(&user); err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50002, "failed to create user")
		return
	}

	token, err := utils.GenerateToken(user.ID, user.Username, tokenTTL())
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50003, "failed to generate token")
		return
	}

	utils.Success(ctx, gin.H{
		"token": token,
		"user":  userResponse(&user),
	})
}

// createWithInvitationCode inserts the user plus a defaults preference row,
// retrying on the rare invitation code collision.
func (a *AuthController) createWithInvitationCode(user *models.User) error {
	var err error
	for attempt := 0; attempt < 5; attempt++ {
		code := utils.GenerateInvitationCode()
		user.InvitationCode = &code
		err = a.db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(user).Error; err != nil {
				return err
			}
			return tx.Create(&models.UserPreference{UserID: user.ID}).Error
		})
		if err == nil {
			return nil
		}
		if !isDuplicateKey(err) {
			return err
		}
		user.ID = "" // regenerate the UUID too
	}
	return err
}

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return strings.Contains(err.Error(), "Duplicate entry")
}

// Login verifies credentials and issues a JWT.
func (a *AuthController) Login(ctx *gin.Context) {
	type request struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40003, "invalid request payload")
		return
	}

	var user models.User
	err := a.db.Where("email = ?", strings.ToLower(strings.TrimSpace(req.Email))).First(&user).Error
	if err != nil || !utils.CheckPassword(user.PasswordHash, req.Password) {
		utils.Error(ctx, http.StatusUnauthorized, 40106, "invalid email or password")
		return
	}

	a.touchActivity(&user)

	token, err := utils.GenerateToken(user.ID, user.Username, tokenTTL())
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50004, "failed to generate token")
		return
	}

	utils.Success(ctx, gin.H{
		"token": token,
		"user":  userResponse(&user),
	})
}

// GoogleLogin signs a user in with a Google credential. Accepts either an
// authorization code (server-side flow) or an access token from the mobile
// SDK; either way the profile comes from the userinfo endpoint.
func (a *AuthController) GoogleLogin(ctx *gin.Context) {
	var req struct {
		Code        string `json:"code"`
		RedirectURI string `json:"redirect_uri"`
		AccessToken string `json:"access_token"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil || (req.Code == "" && req.AccessToken == "") {
		utils.Error(ctx, http.StatusBadRequest, 40005, "missing google credential")
		return
	}

	token := &oauth2.Token{AccessToken: req.AccessToken}
	if req.Code != "" {
		cfg := config.Get()
		if cfg.GoogleClientID == "" || cfg.GoogleClientSecret == "" {
			utils.Error(ctx, http.StatusBadRequest, 40004, "google oauth not configured")
			return
		}
		oc := &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  req.RedirectURI,
			Scopes:       []string{"openid", "profile", "email"},
			Endpoint:     google.Endpoint,
		}
		exchanged, err := oc.Exchange(ctx.Request.Context(), req.Code)
		if err != nil {
			utils.Error(ctx, http.StatusBadRequest, 40007, "failed to exchange code")
			return
		}
		token = exchanged
	}

	info, err := fetchGoogleUser(token)
	if err != nil {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "failed to fetch google profile")
		return
	}

	user, err := a.findOrCreateGoogleUser(info)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50006, "failed to persist user")
		return
	}

	a.touchActivity(user)

	jwtToken, err := utils.GenerateToken(user.ID, user.Username, tokenTTL())
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50004, "failed to generate token")
		return
	}

	utils.Success(ctx, gin.H{"token": jwtToken, "user": userResponse(user)})
}

type googleUser struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

func fetchGoogleUser(token *oauth2.Token) (*googleUser, error) {
	req, _ := http.NewRequest("GET", "https://www.googleapis.com/oauth2/v2/userinfo", nil)
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token.AccessToken))

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("google user info request failed: %s", resp.Status)
	}

	var payload googleUser
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}
	if payload.ID == "" || payload.Email == "" {
		return nil, fmt.Errorf("google user info incomplete")
	}
	return &payload, nil
}

func (a *AuthController) findOrCreateGoogleUser(info *googleUser) (*models.User, error) {
	var user models.User
	err := a.db.Where("google_id = ?", info.ID).First(&user).Error
	if err == nil {
		return &user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	// Attach to an existing local account with the same email.
	email := strings.ToLower(strings.TrimSpace(info.Email))
	err = a.db.Where("email = ?", email).First(&user).Error
	if err == nil {
		user.GoogleID = &info.ID
		if user.ProfilePicture == "" {
			user.ProfilePicture = info.Picture
		}
		if err := a.db.Save(&user).Error; err != nil {
			return nil, err
		}
		return &user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	username := strings.TrimSpace(info.Name)
	if username == "" {
		username = strings.SplitN(email, "@", 2)[0]
	}
	user = models.User{
		Username:       username,
		Email:          email,
		GoogleID:       &info.ID,
		ProfilePicture: info.Picture,
	}
	if err := a.createWithInvitationCode(&user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Logout blacklists the presented token until its natural expiration.
func (a *AuthController) Logout(ctx *gin.Context) {
	authHeader := ctx.GetHeader("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 {
		utils.Error(ctx, http.StatusUnauthorized, 40107, "invalid authorization header")
		return
	}

	token := strings.TrimSpace(parts[1])
	claims, err := utils.ParseToken(token)
	if err != nil {
		utils.Error(ctx, http.StatusUnauthorized, 40105, "invalid token")
		return
	}

	expiresAt := time.Now().Add(tokenTTL())
	if claims.RegisteredClaims.ExpiresAt != nil {
		expiresAt = claims.RegisteredClaims.ExpiresAt.Time
	}

	utils.BlacklistToken(token, expiresAt)

	if userID, ok := ctx.Get("user_id"); ok {
		_ = a.db.Model(&models.User{}).Where("id = ?", userID).
			Update("is_online", false).Error
	}

	utils.Success(ctx, gin.H{"message": "logged out"})
}

// Me returns the authenticated user's profile.
func (a *AuthController) Me(ctx *gin.Context) {
	user, ok := loadCurrentUser(ctx, a.db)
	if !ok {
		return
	}
	a.touchActivity(user)
	utils.Success(ctx, userResponse(user))
}

// UpdateProfile updates basic profile fields. Free-text fields are stripped
// of markup before persisting.
func (a *AuthController) UpdateProfile(ctx *gin.Context) {
	user, ok := loadCurrentUser(ctx, a.db)
	if !ok {
		return
	}

	var req struct {
		Username       *string `json:"username"`
		Age            *int    `json:"age"`
		Bio            *string `json:"bio"`
		ProfilePicture *string `json:"profile_picture"`
		PhoneNumber    *string `json:"phone_number"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40030, "invalid request payload")
		return
	}

	if req.Username != nil {
		name := utils.Sanitize(strings.TrimSpace(*req.Username))
		if l := len([]rune(name)); l < 2 || l > 64 {
			utils.Error(ctx, http.StatusBadRequest, 40031, "username must be 2-64 characters")
			return
		}
		user.Username = name
	}
	if req.Age != nil {
		if *req.Age < 13 || *req.Age > 120 {
			utils.Error(ctx, http.StatusBadRequest, 40032, "invalid age")
			return
		}
		user.Age = req.Age
	}
	if req.Bio != nil {
		bio := utils.Sanitize(strings.TrimSpace(*req.Bio))
		if rs := []rune(bio); len(rs) > 500 {
			bio = string(rs[:500])
		}
		user.Bio = bio
	}
	if req.ProfilePicture != nil {
		user.ProfilePicture = strings.TrimSpace(*req.ProfilePicture)
	}
	if req.PhoneNumber != nil {
		user.PhoneNumber = strings.TrimSpace(*req.PhoneNumber)
	}

	if err := a.db.Save(user).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50031, "failed to update profile")
		return
	}

	utils.Success(ctx, userResponse(user))
}

// touchActivity refreshes presence columns, best-effort.
func (a *AuthController) touchActivity(user *models.User) {
	now := time.Now()
	user.LastActive = now
	user.IsOnline = true
	_ = a.db.Model(user).UpdateColumns(map[string]interface{}{
		"last_active": now,
		"is_online":   true,
	}).Error
}
