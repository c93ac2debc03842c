package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"shaasam/internal/cache"
	"shaasam/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testPhone = "+14155550100"

func newVerification(t *testing.T, r repos, sender *fakeSender, rdb *redis.Client, production bool) *VerificationService {
	t.Helper()
	svc := NewVerificationService(r.verifications, r.humans, r.audit, sender, NewSessionIssuer(testSecret), rdb, production)
	svc.hashCost = bcrypt.MinCost
	return svc
}

func TestVerification_EndToEnd(t *testing.T) {
	r := newRepos(t)
	sender := &fakeSender{simulated: true}
	svc := newVerification(t, r, sender, nil, false)
	ctx := context.Background()

	started, err := svc.Start(ctx, "1 (415) 555-0100")
	require.NoError(t, err)
	assert.Equal(t, "Dev mode: check server logs for the code.", started.Message)
	require.Len(t, started.DevCode, CodeLength)
	require.Len(t, sender.messages, 1)
	assert.Contains(t, sender.messages[0], started.DevCode)

	challenge, err := r.verifications.GetByPhone(ctx, testPhone)
	require.NoError(t, err)
	require.NotNil(t, challenge)
	assert.NotEqual(t, started.DevCode, challenge.Hash, "only the hash is stored")

	res, err := svc.Verify(ctx, "+1 415 555 0100", started.DevCode)
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.NotEmpty(t, res.Token)

	humanID, err := NewSessionIssuer(testSecret).Resolve(res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.HumanID, humanID)

	human, err := r.humans.GetByID(ctx, res.HumanID)
	require.NoError(t, err)
	assert.True(t, human.Verified)
	assert.Equal(t, models.ReviewStatusPending, human.ReviewStatus)
	assert.Equal(t, models.AccountStatusActive, human.Status)

	gone, err := r.verifications.GetByPhone(ctx, testPhone)
	require.NoError(t, err)
	assert.Nil(t, gone, "a used challenge is deleted")

	_, err = svc.Verify(ctx, testPhone, started.DevCode)
	_, msg := appCode(t, err)
	assert.Equal(t, "Verification expired. Request a new code.", msg)

	svc.now = func() time.Time { return time.Now().Add(2 * ResendWindow) }
	again, err := svc.Start(ctx, testPhone)
	require.NoError(t, err)
	res, err = svc.Verify(ctx, testPhone, again.DevCode)
	require.NoError(t, err)
	assert.False(t, res.Created)
	assert.Equal(t, human.ID, res.HumanID)
}

func TestVerification_AttemptLimit(t *testing.T) {
	r := newRepos(t)
	svc := newVerification(t, r, &fakeSender{simulated: true}, nil, false)
	ctx := context.Background()

	started, err := svc.Start(ctx, testPhone)
	require.NoError(t, err)
	wrong := "000000"
	if started.DevCode == wrong {
		wrong = "111111"
	}

	for i := 0; i < MaxOTPAttempts; i++ {
		_, err := svc.Verify(ctx, testPhone, wrong)
		code, msg := appCode(t, err)
		assert.Equal(t, models.CodeValidation, code)
		assert.Equal(t, "Incorrect code.", msg)
	}

	_, err = svc.Verify(ctx, testPhone, started.DevCode)
	code, msg := appCode(t, err)
	assert.Equal(t, models.CodeRateLimited, code, "the correct code is not checked once locked")
	assert.Equal(t, "Too many attempts. Request a new code.", msg)

	_, err = svc.Verify(ctx, testPhone, started.DevCode)
	_, msg = appCode(t, err)
	assert.Equal(t, "Verification expired. Request a new code.", msg)

	human, err := r.humans.GetByPhone(ctx, testPhone)
	require.NoError(t, err)
	assert.Nil(t, human)
}

func TestVerification_Expiry(t *testing.T) {
	r := newRepos(t)
	svc := newVerification(t, r, &fakeSender{simulated: true}, nil, false)
	ctx := context.Background()

	started, err := svc.Start(ctx, testPhone)
	require.NoError(t, err)

	svc.now = func() time.Time { return time.Now().Add(CodeTTL + time.Minute) }
	_, err = svc.Verify(ctx, testPhone, started.DevCode)
	_, msg := appCode(t, err)
	assert.Equal(t, "Verification expired. Request a new code.", msg)

	gone, err := r.verifications.GetByPhone(ctx, testPhone)
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestVerification_ResendWindow(t *testing.T) {
	t.Run("stored challenge", func(t *testing.T) {
		r := newRepos(t)
		svc := newVerification(t, r, &fakeSender{simulated: true}, nil, false)
		ctx := context.Background()

		_, err := svc.Start(ctx, testPhone)
		require.NoError(t, err)
		_, err = svc.Start(ctx, testPhone)
		code, msg := appCode(t, err)
		assert.Equal(t, models.CodeRateLimited, code)
		assert.Equal(t, "Please wait a moment before requesting another code.", msg)

		svc.now = func() time.Time { return time.Now().Add(ResendWindow + time.Second) }
		_, err = svc.Start(ctx, testPhone)
		assert.NoError(t, err)
	})

	t.Run("redis lock", func(t *testing.T) {
		r := newRepos(t)
		mr, rdb := newRedis(t)
		svc := newVerification(t, r, &fakeSender{simulated: true}, rdb, false)
		ctx := context.Background()

		_, err := svc.Start(ctx, testPhone)
		require.NoError(t, err)
		_, err = svc.Start(ctx, testPhone)
		code, _ := appCode(t, err)
		assert.Equal(t, models.CodeRateLimited, code)

		_, err = svc.Start(ctx, "+14155550199")
		assert.NoError(t, err, "the window is per phone")

		mr.FastForward(ResendWindow + time.Second)
		_, err = svc.Start(ctx, testPhone)
		assert.NoError(t, err)
	})
}

func TestVerification_FailedDeliveryAllowsRetry(t *testing.T) {
	r := newRepos(t)
	mr, rdb := newRedis(t)
	sender := &fakeSender{err: errors.New("carrier down")}
	svc := newVerification(t, r, sender, rdb, false)
	ctx := context.Background()

	_, err := svc.Start(ctx, testPhone)
	code, _ := appCode(t, err)
	assert.Equal(t, models.CodeInternal, code)
	assert.False(t, mr.Exists(cache.OTPResendKey(testPhone)))

	stored, err := r.verifications.GetByPhone(ctx, testPhone)
	require.NoError(t, err)
	assert.Nil(t, stored, "an undelivered code is not kept")

	sender.err = nil
	_, err = svc.Start(ctx, testPhone)
	require.NoError(t, err)
	assert.Len(t, sender.messages, 1)
	assert.True(t, mr.Exists(cache.OTPResendKey(testPhone)))
}

func TestVerification_Start(t *testing.T) {
	t.Run("invalid phone", func(t *testing.T) {
		r := newRepos(t)
		svc := newVerification(t, r, &fakeSender{}, nil, false)
		_, err := svc.Start(context.Background(), "12")
		_, msg := appCode(t, err)
		assert.Equal(t, "Enter a valid phone number.", msg)
	})

	t.Run("real delivery hides the code", func(t *testing.T) {
		r := newRepos(t)
		svc := newVerification(t, r, &fakeSender{}, nil, false)
		res, err := svc.Start(context.Background(), testPhone)
		require.NoError(t, err)
		assert.Equal(t, "Verification code sent.", res.Message)
		assert.Empty(t, res.DevCode)
	})

	t.Run("production never echoes", func(t *testing.T) {
		r := newRepos(t)
		svc := newVerification(t, r, &fakeSender{simulated: true}, nil, true)
		res, err := svc.Start(context.Background(), testPhone)
		require.NoError(t, err)
		assert.Empty(t, res.DevCode)
	})

	t.Run("delivery failure", func(t *testing.T) {
		r := newRepos(t)
		svc := newVerification(t, r, &fakeSender{err: errors.New("carrier down")}, nil, false)
		_, err := svc.Start(context.Background(), testPhone)
		code, _ := appCode(t, err)
		assert.Equal(t, models.CodeInternal, code)
	})

	t.Run("malformed code", func(t *testing.T) {
		r := newRepos(t)
		svc := newVerification(t, r, &fakeSender{}, nil, false)
		_, err := svc.Verify(context.Background(), testPhone, "12")
		_, msg := appCode(t, err)
		assert.Equal(t, "Invalid verification code.", msg)
	})
}

func TestGenerateCode(t *testing.T) {
	t.Parallel()
	for i := 0; i < 50; i++ {
		code, err := generateCode()
		require.NoError(t, err)
		require.Len(t, code, CodeLength)
		for _, c := range code {
			require.True(t, c >= '0' && c <= '9')
		}
	}
}
