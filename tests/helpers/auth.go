package helpers

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"testing"

	authorizer "github.com/localnerve/authorizer-go"
)

func randInt(max int) int {
	n, _ := rand.Int(rand.Reader, big.NewInt(int64(max)))
	return int(n.Int64())
}

// GeneratePassword generates a 10 character password with a capital and special char
func GeneratePassword() string {
	const (
		lower   = "abcdefghijklmnopqrstuvwxyz"
		upper   = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
		special = "!@#$%^&*"
		numbers = "0123456789"
		all     = lower + upper + special + numbers
	)

	password := make([]byte, 10)
	password[0] = upper[randInt(len(upper))]
	password[1] = special[randInt(len(special))]
	password[2] = numbers[randInt(len(numbers))]
	for i := 3; i < len(password); i++ {
		password[i] = all[randInt(len(all))]
	}

	for i := range password {
		j := randInt(len(password))
		password[i], password[j] = password[j], password[i]
	}

	return string(password)
}

// Account is an Authorizer account created for a test run
type Account struct {
	Email       string
	Password    string
	AccessToken string
}

// AcquireAccount signs up a fresh account with the given roles and logs it in
func AcquireAccount(t *testing.T, clientID, authzURL string, roles []string) Account {
	t.Helper()

	client, err := authorizer.NewAuthorizerClient(clientID, authzURL, "", nil)
	if err != nil {
		t.Fatalf("Failed to create authorizer client: %v", err)
	}

	account := Account{
		Email:    fmt.Sprintf("relations-%d@example.test", randInt(1<<30)),
		Password: GeneratePassword(),
	}

	rolePtrs := make([]*string, len(roles))
	for i := range roles {
		rolePtrs[i] = &roles[i]
	}

	if _, err := client.SignUp(&authorizer.SignUpInput{
		Email:           &account.Email,
		Password:        account.Password,
		ConfirmPassword: account.Password,
		Roles:           rolePtrs,
	}); err != nil {
		t.Fatalf("Signup failed for %s: %v", account.Email, err)
	}

	res, err := client.Login(&authorizer.LoginInput{
		Email:    &account.Email,
		Password: account.Password,
	})
	if err != nil {
		t.Fatalf("Login failed for %s: %v", account.Email, err)
	}
	if res.AccessToken == nil {
		t.Fatal("Access token is nil")
	}
	account.AccessToken = *res.AccessToken

	return account
}
