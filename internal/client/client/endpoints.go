package client

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/dmitrijs2005/cropdoc/internal/client/models"
)

// API paths, relative to the base URL.
const (
	PathLogin            = "user/login"
	PathRegister         = "user/register"
	PathForgotPassword   = "user/forgot-password"
	PathVerifyOTP        = "user/verify-otp"
	PathVerifyEmailOTP   = "user/verify-email-otp"
	PathResetPassword    = "user/reset-password"
	PathLanguage         = "user/language"
	PathProfile          = "user/profile"
	PathTranslations     = "user/translations"
	PathBatchTranslation = "translations/batch"
	PathDetect           = "diagnosis/detect"
	PathDiagnosisHistory = "diagnosis/history"
	PathDiagnosis        = "diagnosis/"
	PathChatMessage      = "chatbot/message"
	PathChatHistory      = "chatbot/history"
	PathChatUpload       = "chatbot/upload"
	PathChatVoice        = "chatbot/voice"
)

func decode[T any](resp *Response) (T, error) {
	var v T
	if err := json.Unmarshal(resp.Data, &v); err != nil {
		return v, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return v, nil
}

func validOTP(otp string) bool {
	if len(otp) != 6 {
		return false
	}
	for _, r := range otp {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func (c *HTTPClient) Login(ctx context.Context, email, password string) (models.LoginResult, error) {
	resp, err := c.Post(ctx, PathLogin, models.LoginRequest{Email: email, Password: password}, WithoutAuth())
	if err != nil {
		return models.LoginResult{}, err
	}
	return decode[models.LoginResult](resp)
}

func (c *HTTPClient) Register(ctx context.Context, req models.RegisterRequest) (models.RegisterResult, error) {
	resp, err := c.Post(ctx, PathRegister, req, WithoutAuth())
	if err != nil {
		return models.RegisterResult{}, err
	}
	return decode[models.RegisterResult](resp)
}

func (c *HTTPClient) ForgotPassword(ctx context.Context, email string) (models.Ack, error) {
	resp, err := c.Post(ctx, PathForgotPassword, map[string]string{"email": email}, WithoutAuth())
	if err != nil {
		return models.Ack{}, err
	}
	return decode[models.Ack](resp)
}

func (c *HTTPClient) verify(ctx context.Context, path, email, otp string) (models.Ack, error) {
	if !validOTP(otp) {
		return models.Ack{}, ErrInvalidOTP
	}
	resp, err := c.Post(ctx, path, map[string]string{"email": email, "otp": otp}, WithoutAuth())
	if err != nil {
		return models.Ack{}, err
	}
	return decode[models.Ack](resp)
}

// VerifyOTP checks a password-reset code.
func (c *HTTPClient) VerifyOTP(ctx context.Context, email, otp string) (models.Ack, error) {
	return c.verify(ctx, PathVerifyOTP, email, otp)
}

// VerifyEmailOTP checks a sign-up confirmation code.
func (c *HTTPClient) VerifyEmailOTP(ctx context.Context, email, otp string) (models.Ack, error) {
	return c.verify(ctx, PathVerifyEmailOTP, email, otp)
}

func (c *HTTPClient) ResetPassword(ctx context.Context, req models.ResetPasswordRequest) (models.Ack, error) {
	if !validOTP(req.OTP) {
		return models.Ack{}, ErrInvalidOTP
	}
	resp, err := c.Post(ctx, PathResetPassword, req, WithoutAuth())
	if err != nil {
		return models.Ack{}, err
	}
	return decode[models.Ack](resp)
}

func (c *HTTPClient) UpdateLanguage(ctx context.Context, language string) (models.LanguageUpdate, error) {
	resp, err := c.Put(ctx, PathLanguage, map[string]string{"language": language})
	if err != nil {
		return models.LanguageUpdate{}, err
	}
	return decode[models.LanguageUpdate](resp)
}

func (c *HTTPClient) Profile(ctx context.Context) (models.User, error) {
	resp, err := c.Get(ctx, PathProfile)
	if err != nil {
		return models.User{}, err
	}
	body, err := decode[struct {
		User models.User `json:"user"`
	}](resp)
	return body.User, err
}

// Translations fetches the server's label table for language.
func (c *HTTPClient) Translations(ctx context.Context, language string) (map[string]string, error) {
	resp, err := c.Get(ctx, PathTranslations, WithQuery("lang", language))
	if err != nil {
		return nil, err
	}
	return decode[map[string]string](resp)
}

// BatchTranslate asks the server to translate texts (key -> default-language
// string) into language and returns the translated table.
func (c *HTTPClient) BatchTranslate(ctx context.Context, language string, texts map[string]string) (map[string]string, error) {
	resp, err := c.Post(ctx, PathBatchTranslation, map[string]any{"language": language, "texts": texts})
	if err != nil {
		return nil, err
	}
	body, err := decode[struct {
		Translations map[string]string `json:"translations"`
	}](resp)
	return body.Translations, err
}

// Detect submits an image for diagnosis.
func (c *HTTPClient) Detect(ctx context.Context, req models.DetectRequest, image FilePart, progress ProgressFunc) (models.DiagnosisResult, error) {
	fields := map[string]string{"crop": req.Crop}
	if req.Language != "" {
		fields["language"] = req.Language
	}
	if req.Latitude != nil && req.Longitude != nil {
		fields["latitude"] = strconv.FormatFloat(*req.Latitude, 'f', -1, 64)
		fields["longitude"] = strconv.FormatFloat(*req.Longitude, 'f', -1, 64)
	}
	image.Field = "image"

	resp, err := c.Upload(ctx, PathDetect, MultipartRequest{Fields: fields, File: image, Progress: progress})
	if err != nil {
		return models.DiagnosisResult{}, err
	}

	result, err := decode[models.DiagnosisResult](resp)
	if err != nil {
		return result, err
	}
	result.Raw = resp.Data
	return result, nil
}

func (c *HTTPClient) DiagnosisHistory(ctx context.Context, page, perPage int) (models.DiagnosisPage, error) {
	resp, err := c.Get(ctx, PathDiagnosisHistory,
		WithQuery("page", strconv.Itoa(page)),
		WithQuery("per_page", strconv.Itoa(perPage)))
	if err != nil {
		return models.DiagnosisPage{}, err
	}
	return decode[models.DiagnosisPage](resp)
}

func (c *HTTPClient) Diagnosis(ctx context.Context, id int64) (models.DiagnosisDetail, error) {
	resp, err := c.Get(ctx, PathDiagnosis+strconv.FormatInt(id, 10))
	if err != nil {
		return models.DiagnosisDetail{}, err
	}
	return decode[models.DiagnosisDetail](resp)
}

func (c *HTTPClient) SendMessage(ctx context.Context, req models.ChatRequest) (models.ChatReply, error) {
	resp, err := c.Post(ctx, PathChatMessage, req)
	if err != nil {
		return models.ChatReply{}, err
	}
	return decode[models.ChatReply](resp)
}

func (c *HTTPClient) ChatHistory(ctx context.Context, limit int) (models.ChatHistory, error) {
	var opts []RequestOption
	if limit > 0 {
		opts = append(opts, WithQuery("limit", strconv.Itoa(limit)))
	}
	resp, err := c.Get(ctx, PathChatHistory, opts...)
	if err != nil {
		return models.ChatHistory{}, err
	}
	return decode[models.ChatHistory](resp)
}

// UploadMedia stores a chat attachment; file.Field must be "image" or
// "audio".
func (c *HTTPClient) UploadMedia(ctx context.Context, file FilePart, progress ProgressFunc) (models.UploadHandle, error) {
	resp, err := c.Upload(ctx, PathChatUpload, MultipartRequest{File: file, Progress: progress})
	if err != nil {
		return models.UploadHandle{}, err
	}
	h, err := decode[models.UploadHandle](resp)
	if err != nil {
		return h, err
	}
	if h.FilePath == "" {
		return h, fmt.Errorf("%w: missing file_path", ErrDecode)
	}
	return h, nil
}

// Transcribe sends a voice note and returns its text.
func (c *HTTPClient) Transcribe(ctx context.Context, audio FilePart, language string) (models.Transcription, error) {
	audio.Field = "audio"
	fields := map[string]string{}
	if language != "" {
		fields["language"] = language
	}
	resp, err := c.Upload(ctx, PathChatVoice, MultipartRequest{Fields: fields, File: audio})
	if err != nil {
		return models.Transcription{}, err
	}
	return decode[models.Transcription](resp)
}
