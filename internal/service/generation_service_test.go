package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"quickai/internal/entity"
	"quickai/internal/identity"
	"quickai/internal/media"
	"quickai/internal/model"
	"quickai/internal/storage"
)

type stubRepo struct {
	model.Repository

	creations []entity.DbCreation
	createErr error
}

func (r *stubRepo) CreateCreation(_ context.Context, creation *entity.DbCreation) error {
	if r.createErr != nil {
		return r.createErr
	}
	creation.ID = uint(len(r.creations) + 1)
	r.creations = append(r.creations, *creation)
	return nil
}

type stubIdentity struct {
	state      identity.UsageState
	stateErr   error
	increments int
	incErr     error
}

func (p *stubIdentity) UsageState(_ context.Context, _ uint) (identity.UsageState, error) {
	return p.state, p.stateErr
}

func (p *stubIdentity) IncrementFreeUsage(_ context.Context, _ uint) error {
	if p.incErr != nil {
		return p.incErr
	}
	p.increments++
	return nil
}

type stubChat struct {
	calls         int
	lastPrompt    string
	lastMaxTokens int
	reply         string
	err           error
}

func (s *stubChat) Complete(_ context.Context, prompt string, maxTokens int) (string, error) {
	s.calls++
	s.lastPrompt = prompt
	s.lastMaxTokens = maxTokens
	if s.err != nil {
		return "", s.err
	}
	return s.reply, nil
}

type stubImages struct {
	calls int
	data  []byte
	err   error
}

func (s *stubImages) Generate(_ context.Context, _ string) ([]byte, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.data, nil
}

type stubEditor struct {
	uploads            int
	lastTransformation string
	result             *media.UploadResult
	err                error
}

func (s *stubEditor) Upload(_ context.Context, _ []byte, _ string, transformation string) (*media.UploadResult, error) {
	s.uploads++
	s.lastTransformation = transformation
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func (s *stubEditor) TransformURL(publicID, format, transformation string) string {
	parts := []string{"https://res.example.com/demo/image/upload"}
	if transformation != "" {
		parts = append(parts, transformation)
	}
	parts = append(parts, publicID+"."+format)
	return strings.Join(parts, "/")
}

type stubStorage struct {
	saves    int
	lastOpts storage.SaveOptions
	path     string
	err      error
}

func (s *stubStorage) Save(_ context.Context, _ []byte, opts storage.SaveOptions) (string, error) {
	s.saves++
	s.lastOpts = opts
	if s.err != nil {
		return "", s.err
	}
	return s.path, nil
}

type testEnv struct {
	repo     *stubRepo
	identity *stubIdentity
	chat     *stubChat
	images   *stubImages
	editor   *stubEditor
	storage  *stubStorage
	svc      *GenerationService
}

func newTestEnv(state identity.UsageState) *testEnv {
	env := &testEnv{
		repo:     &stubRepo{},
		identity: &stubIdentity{state: state},
		chat:     &stubChat{reply: "generated text"},
		images:   &stubImages{data: []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}},
		editor:   &stubEditor{result: &media.UploadResult{PublicID: "abc123", SecureURL: "https://res.example.com/demo/image/upload/abc123.png", Format: "png"}},
		storage:  &stubStorage{path: "creations/creation_1.png"},
	}
	env.svc = &GenerationService{
		repo:       env.repo,
		identity:   env.identity,
		chat:       env.chat,
		images:     env.images,
		editor:     env.editor,
		storage:    env.storage,
		publicBase: "/files",
		freeLimit:  10,
		extract: func([]byte) (string, error) {
			return "resume text", nil
		},
	}
	return env
}

func freeState(usage int) identity.UsageState {
	return identity.UsageState{UserID: 7, Plan: entity.PlanFree, FreeUsage: usage}
}

func premiumState() identity.UsageState {
	return identity.UsageState{UserID: 7, Plan: entity.PlanPremium}
}

func writeTempUpload(t *testing.T, name, mimeType string, data []byte) *UploadedFile {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("failed to write temp upload: %v", err)
	}
	return &UploadedFile{
		Path:     path,
		Name:     name,
		Size:     int64(len(data)),
		MimeType: mimeType,
	}
}

func TestGenerateArticleFreeUser(t *testing.T) {
	env := newTestEnv(freeState(3))

	content, err := env.svc.GenerateArticle(context.Background(), 7, entity.ArticleRequest{Prompt: "Write about Go", Length: 1200})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if content != "generated text" {
		t.Errorf("expected vendor content, got %q", content)
	}
	if env.chat.lastMaxTokens != 1200 {
		t.Errorf("expected max tokens 1200, got %d", env.chat.lastMaxTokens)
	}
	if len(env.repo.creations) != 1 {
		t.Fatalf("expected 1 creation, got %d", len(env.repo.creations))
	}
	row := env.repo.creations[0]
	if row.Type != entity.CreationTypeArticle || row.Prompt != "Write about Go" || row.Content != "generated text" {
		t.Errorf("unexpected creation row: %+v", row)
	}
	if row.UserID != 7 {
		t.Errorf("expected user id 7, got %d", row.UserID)
	}
	if env.identity.increments != 1 {
		t.Errorf("expected exactly one usage increment, got %d", env.identity.increments)
	}
}

func TestGenerateArticlePremiumSkipsQuota(t *testing.T) {
	env := newTestEnv(premiumState())

	if _, err := env.svc.GenerateArticle(context.Background(), 7, entity.ArticleRequest{Prompt: "topic"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if env.identity.increments != 0 {
		t.Errorf("premium user should not consume quota, got %d increments", env.identity.increments)
	}
}

func TestGenerateArticleQuotaExhausted(t *testing.T) {
	env := newTestEnv(freeState(10))

	_, err := env.svc.GenerateArticle(context.Background(), 7, entity.ArticleRequest{Prompt: "topic"})
	failure, ok := AsFailure(err)
	if !ok {
		t.Fatalf("expected failure, got %v", err)
	}
	if failure.Message != "Limit reached. Upgrade to continue." {
		t.Errorf("unexpected denial message %q", failure.Message)
	}
	if env.chat.calls != 0 {
		t.Error("vendor must not be called when gated")
	}
	if len(env.repo.creations) != 0 {
		t.Error("no creation row expected on denial")
	}
	if env.identity.increments != 0 {
		t.Error("no usage increment expected on denial")
	}
}

func TestGenerateBlogTitleUsesFixedTokenBudget(t *testing.T) {
	env := newTestEnv(freeState(0))

	if _, err := env.svc.GenerateBlogTitle(context.Background(), 7, entity.BlogTitleRequest{Prompt: "titles about tea"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if env.chat.lastMaxTokens != 100 {
		t.Errorf("expected max tokens 100, got %d", env.chat.lastMaxTokens)
	}
	if env.repo.creations[0].Type != entity.CreationTypeBlogTitle {
		t.Errorf("expected blog-title creation, got %s", env.repo.creations[0].Type)
	}
}

func TestGenerateImageRequiresPremium(t *testing.T) {
	env := newTestEnv(freeState(0))

	_, err := env.svc.GenerateImage(context.Background(), 7, entity.ImageRequest{Prompt: "a cat"})
	failure, ok := AsFailure(err)
	if !ok {
		t.Fatalf("expected failure, got %v", err)
	}
	if failure.Message != "This feature is only available for premium subscriptions." {
		t.Errorf("unexpected denial message %q", failure.Message)
	}
	if env.images.calls != 0 {
		t.Error("vendor must not be called for free user")
	}
}

func TestGenerateImagePremium(t *testing.T) {
	env := newTestEnv(premiumState())

	content, err := env.svc.GenerateImage(context.Background(), 7, entity.ImageRequest{Prompt: "a cat", Publish: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if content != "/files/creations/creation_1.png" {
		t.Errorf("expected public url, got %q", content)
	}
	if env.storage.saves != 1 {
		t.Fatalf("expected one storage save, got %d", env.storage.saves)
	}
	if env.storage.lastOpts.Category != "creations" {
		t.Errorf("expected creations category, got %q", env.storage.lastOpts.Category)
	}
	row := env.repo.creations[0]
	if !row.Publish {
		t.Error("expected publish flag to persist")
	}
	if row.Type != entity.CreationTypeImage {
		t.Errorf("expected image creation, got %s", row.Type)
	}
	if env.identity.increments != 0 {
		t.Error("image generation must not consume free quota")
	}
}

func TestGenerateArticleVendorFailure(t *testing.T) {
	env := newTestEnv(freeState(0))
	env.chat.err = errors.New("model overloaded")

	_, err := env.svc.GenerateArticle(context.Background(), 7, entity.ArticleRequest{Prompt: "topic"})
	failure, ok := AsFailure(err)
	if !ok {
		t.Fatalf("expected failure, got %v", err)
	}
	if failure.Kind != FailureVendor {
		t.Errorf("expected vendor failure, got %s", failure.Kind)
	}
	if failure.Message != "model overloaded" {
		t.Errorf("vendor message should pass through, got %q", failure.Message)
	}
	if len(env.repo.creations) != 0 {
		t.Error("no creation row expected on vendor failure")
	}
	if env.identity.increments != 0 {
		t.Error("no usage increment expected on vendor failure")
	}
}

func TestGenerateArticlePersistFailure(t *testing.T) {
	env := newTestEnv(freeState(0))
	env.repo.createErr = errors.New("db down")

	_, err := env.svc.GenerateArticle(context.Background(), 7, entity.ArticleRequest{Prompt: "topic"})
	failure, ok := AsFailure(err)
	if !ok {
		t.Fatalf("expected failure, got %v", err)
	}
	if failure.Kind != FailurePersistence {
		t.Errorf("expected persistence failure, got %s", failure.Kind)
	}
	if env.identity.increments != 0 {
		t.Error("usage must not be incremented when persistence fails")
	}
}

func TestGenerateArticleIncrementFailure(t *testing.T) {
	env := newTestEnv(freeState(0))
	env.identity.incErr = errors.New("db down")

	_, err := env.svc.GenerateArticle(context.Background(), 7, entity.ArticleRequest{Prompt: "topic"})
	failure, ok := AsFailure(err)
	if !ok {
		t.Fatalf("expected failure, got %v", err)
	}
	if failure.Kind != FailurePersistence {
		t.Errorf("expected persistence failure, got %s", failure.Kind)
	}
}

func TestGenerateArticleTwiceCreatesTwoRows(t *testing.T) {
	env := newTestEnv(premiumState())

	for i := 0; i < 2; i++ {
		if _, err := env.svc.GenerateArticle(context.Background(), 7, entity.ArticleRequest{Prompt: "same prompt"}); err != nil {
			t.Fatalf("unexpected error on call %d: %v", i+1, err)
		}
	}
	if len(env.repo.creations) != 2 {
		t.Errorf("identical requests are distinct creations, expected 2 rows got %d", len(env.repo.creations))
	}
}

func TestRemoveBackground(t *testing.T) {
	env := newTestEnv(premiumState())
	upload := writeTempUpload(t, "photo.png", "image/png", []byte("fake image"))

	content, err := env.svc.RemoveBackground(context.Background(), 7, upload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if content != env.editor.result.SecureURL {
		t.Errorf("expected secure url, got %q", content)
	}
	if env.editor.lastTransformation != "e_background_removal" {
		t.Errorf("unexpected transformation %q", env.editor.lastTransformation)
	}
	row := env.repo.creations[0]
	if row.Prompt != "Remove background from image" || row.Type != entity.CreationTypeImage {
		t.Errorf("unexpected creation row: %+v", row)
	}
	if _, err := os.Stat(upload.Path); !os.IsNotExist(err) {
		t.Error("expected uploaded file to be cleaned up")
	}
}

func TestRemoveBackgroundRejectsNonImage(t *testing.T) {
	env := newTestEnv(premiumState())
	upload := writeTempUpload(t, "doc.pdf", "application/pdf", []byte("%PDF"))

	_, err := env.svc.RemoveBackground(context.Background(), 7, upload)
	if _, ok := AsFailure(err); !ok {
		t.Fatalf("expected validation failure, got %v", err)
	}
	if env.editor.uploads != 0 {
		t.Error("editor must not be called for invalid upload")
	}
	if _, err := os.Stat(upload.Path); !os.IsNotExist(err) {
		t.Error("uploaded file must be cleaned up on validation failure")
	}
}

func TestRemoveObject(t *testing.T) {
	env := newTestEnv(premiumState())
	upload := writeTempUpload(t, "photo.jpg", "image/jpeg", []byte("fake image"))

	content, err := env.svc.RemoveObject(context.Background(), 7, upload, "  Watch ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if env.editor.lastTransformation != "" {
		t.Errorf("object removal uploads without transformation, got %q", env.editor.lastTransformation)
	}
	if !strings.Contains(content, "e_gen_remove:prompt_watch") {
		t.Errorf("expected gen_remove url, got %q", content)
	}
	if env.repo.creations[0].Prompt != "Remove watch from image" {
		t.Errorf("unexpected prompt %q", env.repo.creations[0].Prompt)
	}
}

func TestRemoveObjectRejectsMultipleWords(t *testing.T) {
	env := newTestEnv(premiumState())
	upload := writeTempUpload(t, "photo.jpg", "image/jpeg", []byte("fake image"))

	_, err := env.svc.RemoveObject(context.Background(), 7, upload, "red car")
	if _, ok := AsFailure(err); !ok {
		t.Fatalf("expected validation failure, got %v", err)
	}
	if env.editor.uploads != 0 {
		t.Error("editor must not be called for invalid object name")
	}
}

func TestReviewResume(t *testing.T) {
	env := newTestEnv(premiumState())
	upload := writeTempUpload(t, "resume.pdf", "application/pdf", []byte("%PDF-1.4 fake"))

	content, err := env.svc.ReviewResume(context.Background(), 7, upload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if content != "generated text" {
		t.Errorf("expected chat reply, got %q", content)
	}
	if !strings.Contains(env.chat.lastPrompt, "Resume Content:\nresume text") {
		t.Errorf("expected extracted text in prompt, got %q", env.chat.lastPrompt)
	}
	if env.chat.lastMaxTokens != 1000 {
		t.Errorf("expected max tokens 1000, got %d", env.chat.lastMaxTokens)
	}
	row := env.repo.creations[0]
	if row.Prompt != "Review uploaded resume" || row.Type != entity.CreationTypeResumeReview {
		t.Errorf("unexpected creation row: %+v", row)
	}
	if _, err := os.Stat(upload.Path); !os.IsNotExist(err) {
		t.Error("expected uploaded file to be cleaned up")
	}
}

func TestReviewResumeExtractionFailure(t *testing.T) {
	env := newTestEnv(premiumState())
	env.svc.extract = func([]byte) (string, error) {
		return "", errors.New("corrupt pdf")
	}
	upload := writeTempUpload(t, "resume.pdf", "application/pdf", []byte("broken"))

	_, err := env.svc.ReviewResume(context.Background(), 7, upload)
	failure, ok := AsFailure(err)
	if !ok {
		t.Fatalf("expected failure, got %v", err)
	}
	if failure.Kind != FailureExtraction {
		t.Errorf("expected extraction failure, got %s", failure.Kind)
	}
	if env.chat.calls != 0 {
		t.Error("chat must not be called when extraction fails")
	}
}

func TestReviewResumeRejectsOversized(t *testing.T) {
	env := newTestEnv(premiumState())
	upload := writeTempUpload(t, "resume.pdf", "application/pdf", []byte("x"))
	upload.Size = maxResumeBytes + 1

	_, err := env.svc.ReviewResume(context.Background(), 7, upload)
	if _, ok := AsFailure(err); !ok {
		t.Fatalf("expected validation failure, got %v", err)
	}
	if env.chat.calls != 0 {
		t.Error("chat must not be called for oversized resume")
	}
}
