package apitest

import (
	"fmt"
	"strconv"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/jrsteele09/agent-console/credentials"
)

const (
	accessExpiry  = 30 * time.Minute
	refreshExpiry = 7 * 24 * time.Hour
)

// mintPair signs a fresh access and refresh credential for userID and makes both live.
func (s *Server) mintPair(userID int64) (credentials.Pair, error) {
	access, err := s.sign(userID, "access", accessExpiry)
	if err != nil {
		return credentials.Pair{}, err
	}
	refresh, err := s.sign(userID, "refresh", refreshExpiry)
	if err != nil {
		return credentials.Pair{}, err
	}
	pair := credentials.Pair{AccessToken: access, RefreshToken: refresh}
	s.IssuePair(pair, userID)
	return pair, nil
}

func (s *Server) sign(userID int64, kind string, expiry time.Duration) (string, error) {
	now := time.Now()
	claims := jwtlib.MapClaims{
		"sub":  strconv.FormatInt(userID, 10),
		"type": kind,
		"iat":  now.Unix(),
		"exp":  now.Add(expiry).Unix(),
		"jti":  uuid.NewString(),
	}
	signed, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign %s token: %w", kind, err)
	}
	return signed, nil
}

// Subject returns the user id a credential minted by this server was issued to.
func (s *Server) Subject(token string) (int64, error) {
	parsed, err := jwtlib.Parse(token, func(t *jwtlib.Token) (interface{}, error) {
		return s.secret, nil
	}, jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}))
	if err != nil {
		return 0, err
	}
	sub, err := parsed.Claims.GetSubject()
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(sub, 10, 64)
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	return string(hash), err
}

func checkPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
