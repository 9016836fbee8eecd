package i18n

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func initLang(t *testing.T, lang string) context.Context {
	t.Helper()
	if err := Init(lang); err != nil {
		t.Fatalf("Init(%q): %v", lang, err)
	}
	loc := NewLocalizer(lang)
	return WithLocalizer(context.Background(), loc)
}

func TestTranslateSpanish(t *testing.T) {
	ctx := initLang(t, "es")

	if got := T(ctx, "LevelComplete"); got != "¡Nivel completado!" {
		t.Errorf("T(LevelComplete) = %q", got)
	}
	if got := T(ctx, "GameSaved"); got != "Partida guardada correctamente." {
		t.Errorf("T(GameSaved) = %q", got)
	}
}

func TestTranslateEnglish(t *testing.T) {
	ctx := initLang(t, "en")

	if got := T(ctx, "NoSavedGame"); got != "No saved game." {
		t.Errorf("T(NoSavedGame) = %q", got)
	}
}

func TestPluralWithData(t *testing.T) {
	ctx := initLang(t, "es")

	got := Tpd(ctx, "AnswerWrong", 2, map[string]any{"Feedback": "Carabobo fue decisiva."})
	if got != "❌ Carabobo fue decisiva. Te quedan 2 vidas." {
		t.Errorf("Tpd(AnswerWrong, 2) = %q", got)
	}
	got = Tpd(ctx, "AnswerWrong", 1, map[string]any{"Feedback": "X."})
	if got != "❌ X. Te queda 1 vida." {
		t.Errorf("Tpd(AnswerWrong, 1) = %q", got)
	}

	en := initLang(t, "en")
	if got := Tpd(en, "AnswerWrong", 1, map[string]any{"Feedback": "X."}); got != "❌ X. You have 1 life left." {
		t.Errorf("Tpd(AnswerWrong, 1) en = %q", got)
	}
}

func TestTemplateDataTranslation(t *testing.T) {
	ctx := initLang(t, "es")

	if got := Td(ctx, "CurrentScore", map[string]any{"Score": 30}); got != "Puntaje actual: 30" {
		t.Errorf("Td(CurrentScore) = %q", got)
	}
}

func TestMissingKey(t *testing.T) {
	ctx := initLang(t, "es")

	if got := T(ctx, "NonExistentKey"); got != "NonExistentKey" {
		t.Errorf("T(NonExistentKey) = %q, want the ID back", got)
	}
}

func TestDefaultLocalizerWithoutContext(t *testing.T) {
	initLang(t, "en")
	if got := T(context.Background(), "GameLoaded"); got != "Game loaded." {
		t.Errorf("T without localizer = %q", got)
	}
}

func TestInitBadLanguage(t *testing.T) {
	if err := Init("not a tag!"); err == nil {
		t.Error("expected error for invalid language tag")
	}
}

func TestMiddleware(t *testing.T) {
	initLang(t, "es")
	var got string
	h := Middleware("es")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = T(r.Context(), "NewGameStarted")
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Language", "en-US")
	h.ServeHTTP(httptest.NewRecorder(), req)
	if got != "Nueva partida iniciada." {
		t.Errorf("middleware localizer = %q", got)
	}
}
