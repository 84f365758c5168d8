package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"home_eats/internal/domain"
	"home_eats/internal/utils"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const minPasswordLength = 8

var usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)

// RegisterInput is a sign-up request
type RegisterInput struct {
	Username        string
	Email           string
	Password        string
	ConfirmPassword string
	UserType        string
	Name            string
	Phone           string
	Street          string
	City            string
	State           string
	Country         string
	Pincode         string
	// owner only
	BusinessName    string
	BusinessAddress string
	BusinessPincode string
	FSSAINumber     string
	// delivery only
	VehicleNumber string
}

// ProfilePatch holds the fields a user may change on themselves; nil means untouched
type ProfilePatch struct {
	Name            *string
	Email           *string
	Phone           *string
	Street          *string
	City            *string
	State           *string
	Country         *string
	Pincode         *string
	BusinessName    *string
	BusinessAddress *string
	BusinessPincode *string
	FSSAINumber     *string
	VehicleNumber   *string
	IsActive        *bool
}

// Accounts registers, authenticates and loads users
type Accounts struct {
	db     *gorm.DB
	ledger *Ledger
}

// NewAccounts builds the account service
func NewAccounts(db *gorm.DB, ledger *Ledger) *Accounts {
	return &Accounts{db: db, ledger: ledger}
}

// NormalizeRole maps the accepted user_type spellings onto a role
func NormalizeRole(userType string) string {
	switch strings.TrimSpace(userType) {
	case "customer":
		return domain.RoleCustomer
	case "owner", "tiffinOwner", "tiffin_owner":
		return domain.RoleOwner
	case "delivery", "deliveryBoy", "delivery_boy":
		return domain.RoleDelivery
	}
	return ""
}

// Register creates the user, its role profile and its wallet together
func (s *Accounts) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	username := strings.ToLower(strings.TrimSpace(in.Username))
	email := strings.ToLower(strings.TrimSpace(in.Email))
	role := NormalizeRole(in.UserType)

	verr := domain.ValidationError{}
	switch {
	case username == "":
		verr["username"] = "This field is required."
	case !usernamePattern.MatchString(username):
		verr["username"] = "Enter a valid username. It may contain letters, numbers and @/./+/-/_ only."
	}
	switch {
	case in.Password == "":
		verr["password"] = "This field is required."
	case len(in.Password) < minPasswordLength:
		verr["password"] = "This password is too short. It must contain at least 8 characters."
	}
	if in.ConfirmPassword == "" {
		verr["confirm_password"] = "This field is required."
	} else if in.Password != "" && in.Password != in.ConfirmPassword {
		verr["confirm_password"] = "Passwords do not match."
	}
	if strings.TrimSpace(in.UserType) == "" {
		verr["user_type"] = "This field is required."
	} else if !domain.IsValidRegistrationRole(role) {
		verr["user_type"] = fmt.Sprintf("%q is not a valid choice.", in.UserType)
	}
	if len(verr) > 0 {
		return nil, verr
	}

	db := s.db.WithContext(ctx)
	if taken, err := exists(db.Model(&domain.User{}).Where("username = ?", username)); err != nil {
		return nil, err
	} else if taken {
		return nil, domain.Invalid("username", "A user with that username already exists.")
	}
	var emailPtr *string
	if email != "" {
		if taken, err := exists(db.Model(&domain.User{}).Where("email = ?", email)); err != nil {
			return nil, err
		} else if taken {
			return nil, domain.Invalid("email", "A user with that email already exists.")
		}
		emailPtr = &email
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := domain.User{
		Username: username,
		Email:    emailPtr,
		Password: string(hash),
		Role:     role,
		Name:     strings.TrimSpace(in.Name),
		Phone:    strings.TrimSpace(in.Phone),
		Street:   strings.TrimSpace(in.Street),
		City:     strings.TrimSpace(in.City),
		State:    strings.TrimSpace(in.State),
		Country:  strings.TrimSpace(in.Country),
		Pincode:  strings.TrimSpace(in.Pincode),
	}
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return fmt.Errorf("create user: %w", err)
		}
		switch role {
		case domain.RoleOwner:
			p := domain.OwnerProfile{
				UserID:          user.ID,
				BusinessName:    firstNonEmpty(in.BusinessName, user.Name, user.Username),
				BusinessAddress: firstNonEmpty(in.BusinessAddress, user.Street),
				BusinessPincode: firstNonEmpty(in.BusinessPincode, user.Pincode),
				FSSAINumber:     strings.TrimSpace(in.FSSAINumber),
			}
			if err := tx.Create(&p).Error; err != nil {
				return fmt.Errorf("create owner profile: %w", err)
			}
		case domain.RoleDelivery:
			p := domain.CourierProfile{UserID: user.ID, VehicleNumber: strings.TrimSpace(in.VehicleNumber), IsActive: true}
			if err := tx.Create(&p).Error; err != nil {
				return fmt.Errorf("create courier profile: %w", err)
			}
		}
		_, err := getOrCreateWallet(tx, user.ID)
		return err
	})
	if err != nil {
		logrus.WithFields(logrus.Fields{"username": username, "error": err.Error()}).Error("Registration failed")
		return nil, err
	}
	logrus.WithFields(logrus.Fields{"user_id": user.ID, "username": username, "role": role}).Info("User registered")
	return s.Me(ctx, user.ID)
}

// Authenticate checks a username and password pair
func (s *Accounts) Authenticate(ctx context.Context, username, password string) (*domain.User, error) {
	var user domain.User
	err := s.db.WithContext(ctx).Where("username = ?", strings.ToLower(strings.TrimSpace(username))).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, domain.ErrInvalidCredentials
	}
	return &user, nil
}

// Load returns the user with role profiles, used on every authenticated request
func (s *Accounts) Load(ctx context.Context, id uint) (*domain.User, error) {
	var user domain.User
	err := s.db.WithContext(ctx).Preload("OwnerProfile").Preload("CourierProfile").First(&user, id).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

// Me returns the user with role profile and wallet
func (s *Accounts) Me(ctx context.Context, id uint) (*domain.User, error) {
	user, err := s.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	wallet, err := s.ledger.GetOrCreate(ctx, id)
	if err != nil {
		return nil, err
	}
	user.Wallet = wallet
	return user, nil
}

// UpdateMe applies a partial profile update
func (s *Accounts) UpdateMe(ctx context.Context, id uint, patch ProfilePatch) (*domain.User, error) {
	user, err := s.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	updates := map[string]any{}
	setString(updates, "name", patch.Name)
	setString(updates, "phone", patch.Phone)
	setString(updates, "street", patch.Street)
	setString(updates, "city", patch.City)
	setString(updates, "state", patch.State)
	setString(updates, "country", patch.Country)
	setString(updates, "pincode", patch.Pincode)
	if patch.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*patch.Email))
		if email == "" {
			updates["email"] = nil
		} else {
			taken, err := exists(s.db.WithContext(ctx).Model(&domain.User{}).Where("email = ? AND id <> ?", email, id))
			if err != nil {
				return nil, err
			}
			if taken {
				return nil, domain.Invalid("email", "A user with that email already exists.")
			}
			updates["email"] = email
		}
	}

	business := map[string]any{}
	setString(business, "business_name", patch.BusinessName)
	setString(business, "business_address", patch.BusinessAddress)
	setString(business, "business_pincode", patch.BusinessPincode)
	setString(business, "fssai_number", patch.FSSAINumber)

	courier := map[string]any{}
	setString(courier, "vehicle_number", patch.VehicleNumber)
	if patch.IsActive != nil {
		courier["is_active"] = *patch.IsActive
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(updates) > 0 {
			if err := tx.Model(&domain.User{}).Where("id = ?", id).Updates(updates).Error; err != nil {
				return fmt.Errorf("update user: %w", err)
			}
		}
		if len(business) > 0 && user.OwnerProfile != nil {
			if err := tx.Model(&domain.OwnerProfile{}).Where("id = ?", user.OwnerProfile.ID).Updates(business).Error; err != nil {
				return fmt.Errorf("update owner profile: %w", err)
			}
		}
		if len(courier) > 0 && user.CourierProfile != nil {
			if err := tx.Model(&domain.CourierProfile{}).Where("id = ?", user.CourierProfile.ID).Updates(courier).Error; err != nil {
				return fmt.Errorf("update courier profile: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Me(ctx, id)
}

// ListUsers returns a page of users with their wallets
func (s *Accounts) ListUsers(ctx context.Context, page utils.Page) ([]domain.User, int64, error) {
	q := s.db.WithContext(ctx).Model(&domain.User{}).Session(&gorm.Session{})
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}
	var users []domain.User
	if err := q.Preload("Wallet").Order("id").Offset(page.Offset()).Limit(page.Limit()).Find(&users).Error; err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	return users, total, nil
}

func exists(q *gorm.DB) (bool, error) {
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func setString(m map[string]any, column string, v *string) {
	if v != nil {
		m[column] = strings.TrimSpace(*v)
	}
}
