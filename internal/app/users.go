/**
 * @description
 * This file contains the user lifecycle logic: registration, authentication,
 * email verification, password and PIN management (all code-gated), and the
 * dedicated-account assignment request flow.
 *
 * @notes
 * - Passwords and transaction PINs are stored as bcrypt hashes only.
 * - Every sensitive mutation (verify, reset password, set PIN) is gated on a
 *   one-time code held in Redis, so the gate holds across replicas.
 * - Requesting a dedicated account reserves the user's assignment slot before
 *   calling the gateway; a gateway failure releases the reservation so the
 *   user can retry.
 */

package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/kobocharge/vtu-backend/internal/domain"
	"github.com/kobocharge/vtu-backend/internal/store"
)

// Register creates a new unverified user and issues a verification code.
func (s *Service) Register(ctx context.Context, req domain.RegisterRequest) (*domain.User, error) {
	if req.Name == "" || req.Email == "" || req.Phone == "" || req.Password == "" {
		return nil, ErrMissingFields
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &domain.User{
		ID:           uuid.New(),
		Name:         req.Name,
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:        req.Phone,
		PasswordHash: string(hash),
		IsActive:     true,
		DVAState:     domain.DVAStateNone,
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	s.issueCode(ctx, user.Email)
	return user, nil
}

// Login authenticates a user by email and password.
func (s *Service) Login(ctx context.Context, req domain.LoginRequest) (*domain.User, error) {
	if req.Email == "" || req.Password == "" {
		return nil, ErrMissingFields
	}

	user, err := s.repo.FindUserByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrAccountDisabled
	}
	return user, nil
}

// RequestVerificationCode issues a fresh code to an existing user's email.
func (s *Service) RequestVerificationCode(ctx context.Context, email string) error {
	user, err := s.repo.FindUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return err
	}
	s.issueCode(ctx, user.Email)
	return nil
}

// VerifyEmail consumes a verification code and marks the user verified.
func (s *Service) VerifyEmail(ctx context.Context, email, code string) error {
	user, err := s.repo.FindUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return err
	}
	if err := s.codes.Verify(ctx, user.Email, code); err != nil {
		return err
	}
	return s.repo.MarkUserVerified(ctx, user.ID)
}

// ResetPassword consumes a verification code and replaces the user's password.
func (s *Service) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	if newPassword == "" {
		return ErrMissingFields
	}
	user, err := s.repo.FindUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return err
	}
	if err := s.codes.Verify(ctx, user.Email, code); err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	return s.repo.UpdateUserPassword(ctx, user.ID, string(hash))
}

// ChangePassword replaces a signed-in user's password after checking the old one.
func (s *Service) ChangePassword(ctx context.Context, userID uuid.UUID, oldPassword, newPassword string) error {
	if oldPassword == "" || newPassword == "" {
		return ErrMissingFields
	}
	user, err := s.repo.FindUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(oldPassword)); err != nil {
		return ErrInvalidPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	return s.repo.UpdateUserPassword(ctx, user.ID, string(hash))
}

// SetPIN consumes a verification code and sets the user's transaction PIN.
func (s *Service) SetPIN(ctx context.Context, userID uuid.UUID, code, pin string) error {
	if len(pin) != 4 {
		return ErrInvalidPIN
	}
	user, err := s.repo.FindUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.codes.Verify(ctx, user.Email, code); err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash pin: %w", err)
	}
	return s.repo.UpdateUserPIN(ctx, user.ID, string(hash))
}

// CheckPIN verifies a user's transaction PIN.
func (s *Service) CheckPIN(ctx context.Context, userID uuid.UUID, pin string) error {
	user, err := s.repo.FindUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.PINHash == nil {
		return ErrInvalidPIN
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*user.PINHash), []byte(pin)); err != nil {
		return ErrInvalidPIN
	}
	return nil
}

// Profile returns the user record together with any assigned funding account.
func (s *Service) Profile(ctx context.Context, userID uuid.UUID) (*domain.User, *domain.DedicatedAccount, error) {
	user, err := s.repo.FindUserByID(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	account, err := s.repo.FindDedicatedAccountByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrAccountNotFound) {
			return user, nil, nil
		}
		return nil, nil, err
	}
	return user, account, nil
}

// RequestDedicatedAccount reserves the user's assignment slot and asks the
// payment gateway to assign a dedicated funding account. The reservation makes
// the request single-flight: a second call while one is in progress fails with
// store.ErrDVAAlreadyRequested.
func (s *Service) RequestDedicatedAccount(ctx context.Context, userID uuid.UUID) error {
	user, err := s.repo.FindUserByID(ctx, userID)
	if err != nil {
		return err
	}

	if err := s.repo.ReserveDVA(ctx, user.ID); err != nil {
		return err
	}

	firstName, lastName := splitName(user.Name)
	if err := s.assigner.RequestAssignment(ctx, user.Email, firstName, lastName, user.Phone); err != nil {
		// Roll the reservation back so the user can retry.
		if relErr := s.repo.ReleaseDVAReservation(ctx, user.ID); relErr != nil {
			log.Printf("level=error component=dva msg=\"failed to release reservation after gateway error\" user_id=%s err=%v",
				user.ID, relErr)
		}
		return fmt.Errorf("dedicated account request failed: %w", err)
	}

	log.Printf("level=info component=dva msg=\"assignment requested\" user_id=%s", user.ID)
	return nil
}

// Administrative user operations.

// ListUsers returns every user for administrative review.
func (s *Service) ListUsers(ctx context.Context) ([]domain.User, error) {
	return s.repo.ListUsers(ctx)
}

// SetUserActive enables or disables a user's account.
func (s *Service) SetUserActive(ctx context.Context, userID uuid.UUID, active bool) error {
	return s.repo.SetUserActive(ctx, userID, active)
}

// DeleteUser removes a user. Ledger entries are retained for audit.
func (s *Service) DeleteUser(ctx context.Context, userID uuid.UUID) error {
	return s.repo.DeleteUser(ctx, userID)
}

// issueCode generates a verification code and hands it to the notification
// fanout for email delivery. Delivery is best-effort.
func (s *Service) issueCode(ctx context.Context, email string) {
	code, err := s.codes.Issue(ctx, email)
	if err != nil {
		log.Printf("level=error component=users msg=\"failed to issue verification code\" email=%s err=%v", email, err)
		return
	}
	if err := s.publisher.Publish(ctx, domain.EventKeyVerificationCode, domain.VerificationCodePayload{
		Email: email,
		Code:  code,
	}); err != nil {
		log.Printf("level=error component=users msg=\"failed to publish verification code\" email=%s err=%v", email, err)
	}
}

func splitName(full string) (string, string) {
	parts := strings.Fields(full)
	if len(parts) == 0 {
		return "", ""
	}
	if len(parts) == 1 {
		return parts[0], parts[0]
	}
	return parts[0], strings.Join(parts[1:], " ")
}
