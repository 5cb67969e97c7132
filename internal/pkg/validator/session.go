package validator

import (
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/futig/interview-flow/internal/entity"
)

// ValidateCreateSession validates CreateSessionRequest
func (v *Validator) ValidateCreateSession(req *entity.CreateSessionRequest) error {
	if strings.TrimSpace(req.UserID) == "" {
		return fmt.Errorf("%w: user_id", entity.ErrMissingField)
	}

	if req.UserInfo != nil {
		if err := v.ValidateUserInfo(req.UserInfo); err != nil {
			return err
		}
	}

	return v.ValidateCallbackURL(req.CallbackURL)
}

// ValidateUserInfo validates a partial candidate profile
func (v *Validator) ValidateUserInfo(info *entity.UserInfo) error {
	if info == nil {
		return fmt.Errorf("%w: user_info", entity.ErrMissingField)
	}

	if y := info.YearsOfExperience; y != nil && (*y < 0 || *y > maxYearsOfExperience) {
		return fmt.Errorf("%w: years_of_experience must be between 0 and %d, got %d",
			entity.ErrInvalidParameter, maxYearsOfExperience, *y)
	}

	return nil
}

// ValidateCallbackURL accepts an empty URL, the callback is optional
func (v *Validator) ValidateCallbackURL(raw string) error {
	if raw == "" {
		return nil
	}

	if err := validateURL("callback_url", raw); err != nil {
		return fmt.Errorf("%w: %w", entity.ErrInvalidParameter, err)
	}

	return nil
}

// ValidateSubmitResponse validates a text answer submission
func (v *Validator) ValidateSubmitResponse(req *entity.SubmitResponseRequest) error {
	if strings.TrimSpace(req.Response) == "" {
		return fmt.Errorf("%w: response", entity.ErrMissingField)
	}

	if req.Duration < 0 {
		return fmt.Errorf("%w: duration must not be negative", entity.ErrInvalidParameter)
	}

	if req.AudioURL != "" {
		if err := validateURL("audio_url", req.AudioURL); err != nil {
			return fmt.Errorf("%w: %w", entity.ErrInvalidParameter, err)
		}
	}

	return nil
}

// ValidateSubmitAudioResponse validates an audio answer submission
func (v *Validator) ValidateSubmitAudioResponse(req *entity.SubmitAudioResponseRequest) error {
	if req.AudioFile == nil {
		return fmt.Errorf("%w: audio file", entity.ErrMissingField)
	}

	if req.Duration < 0 {
		return fmt.Errorf("%w: duration must not be negative", entity.ErrInvalidParameter)
	}

	return v.ValidateAudioFile(req.AudioFile)
}

// ValidateListSessions validates list filters
func (v *Validator) ValidateListSessions(req *entity.ListSessionsRequest) error {
	if req.State == "" {
		return nil
	}

	if err := req.State.Validate(); err != nil {
		return fmt.Errorf("%w: %w", entity.ErrInvalidParameter, err)
	}

	return nil
}

// ValidateAudioFile validates audio file uploads (WAV format only)
func (v *Validator) ValidateAudioFile(file *multipart.FileHeader) error {
	if file == nil {
		return entity.ErrMissingField
	}

	// Check file extension
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if ext != ".wav" {
		return fmt.Errorf("%w: %s (only .wav files are allowed)", entity.ErrInvalidExtension, ext)
	}

	// Check file size
	if file.Size > v.cfg.MaxAudioFileSize {
		return fmt.Errorf("%w: file '%s' is %d bytes (max %d)", entity.ErrFileTooLarge, file.Filename, file.Size, v.cfg.MaxAudioFileSize)
	}

	// Check content type if provided
	contentType := file.Header.Get("Content-Type")
	if contentType != "" &&
		contentType != "audio/wav" &&
		contentType != "audio/x-wav" &&
		contentType != "audio/wave" &&
		contentType != "application/octet-stream" {
		return fmt.Errorf("%w: content type '%s' (expected audio/wav, audio/x-wav or application/octet-stream)", entity.ErrInvalidExtension, contentType)
	}

	return nil
}
