package web

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

const signInRequired = "You must be signed in to do that."

// assertSignInRequired はサインインページへのリダイレクトとフラッシュメッセージを確認します。
func assertSignInRequired(t *testing.T, app *testApp, rec *httptest.ResponseRecorder) {
	t.Helper()
	assertRedirect(t, rec, "/users/signin")
	assertContains(t, app.get("/users/signin").Body.String(), signInRequired)
}

func TestHomeListsDocuments(t *testing.T) {
	app := newTestApp(t)
	app.createDocument("about.md", "")
	app.createDocument("changes.txt", "")

	rec := app.get("/home")
	assertStatus(t, rec, http.StatusOK)
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Fatalf("unexpected content-type: %s", ct)
	}
	assertContains(t, rec.Body.String(), `href="/about.md"`)
	assertContains(t, rec.Body.String(), `href="/changes.txt"`)
}

func TestViewTextDocument(t *testing.T) {
	app := newTestApp(t)
	app.createDocument("history.txt", "Ruby 0.95 released")

	rec := app.get("/history.txt")
	assertStatus(t, rec, http.StatusOK)
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Fatalf("unexpected content-type: %s", ct)
	}
	if rec.Body.String() != "Ruby 0.95 released" {
		t.Fatalf("unexpected body: %q", rec.Body.String())
	}
}

func TestViewMissingDocument(t *testing.T) {
	app := newTestApp(t)
	assertRedirect(t, app.get("/not_a_file.ext"), "/home")
	assertContains(t, app.get("/home").Body.String(), "not_a_file.ext does not exist")
}

func TestViewMarkdownDocument(t *testing.T) {
	app := newTestApp(t)
	app.createDocument("about.md", "# Markdown: Syntax")

	rec := app.get("/about.md")
	assertStatus(t, rec, http.StatusOK)
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Fatalf("unexpected content-type: %s", ct)
	}
	assertContains(t, rec.Body.String(), "<h1>Markdown: Syntax</h1>")
}

func TestViewUnsupportedDocumentIsDownloaded(t *testing.T) {
	app := newTestApp(t)
	app.createDocument("feed.xml", `<?xml version="1.0" encoding="UTF-8"?><feed></feed>`)

	rec := app.get("/feed.xml")
	assertStatus(t, rec, http.StatusOK)
	if cd := rec.Header().Get("Content-Disposition"); !strings.HasPrefix(cd, "attachment;") {
		t.Fatalf("unexpected content-disposition: %s", cd)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.Contains(ct, "xml") {
		t.Fatalf("unexpected content-type: %s", ct)
	}
}

func TestEditDocumentForm(t *testing.T) {
	app := newTestApp(t)
	app.createDocument("changes.txt", "some & content")
	app.signIn()

	rec := app.get("/changes.txt/edit")
	assertStatus(t, rec, http.StatusOK)
	assertContains(t, rec.Body.String(), "<textarea")
	assertContains(t, rec.Body.String(), `<button type="submit"`)
	assertContains(t, rec.Body.String(), "some &amp; content")
}

func TestEditDocumentFormMissing(t *testing.T) {
	app := newTestApp(t)
	app.signIn()
	assertRedirect(t, app.get("/missing.txt/edit"), "/home")
	assertContains(t, app.get("/home").Body.String(), "missing.txt does not exist")
}

func TestEditDocumentFormSignedOut(t *testing.T) {
	app := newTestApp(t)
	app.createDocument("changes.txt", "")
	assertSignInRequired(t, app, app.get("/changes.txt/edit"))
}

func TestUpdateDocument(t *testing.T) {
	app := newTestApp(t)
	app.createDocument("changes.txt", "old content")
	app.signIn()

	rec := app.post("/changes.txt", url.Values{"content": {"new content"}})
	assertRedirect(t, rec, "/home")
	assertContains(t, app.get("/home").Body.String(), "changes.txt has been updated")

	view := app.get("/changes.txt")
	assertStatus(t, view, http.StatusOK)
	if view.Body.String() != "new content" {
		t.Fatalf("round trip mismatch: %q", view.Body.String())
	}
}

func TestUpdateCreatesMissingDocumentWithValidName(t *testing.T) {
	app := newTestApp(t)
	app.signIn()

	assertRedirect(t, app.post("/fresh.txt", url.Values{"content": {"hello"}}), "/home")
	if content, ok := app.readDocument("fresh.txt"); !ok || content != "hello" {
		t.Fatalf("unexpected content: %q (exists=%v)", content, ok)
	}

	assertRedirect(t, app.post("/script.exe", url.Values{"content": {"x"}}), "/home")
	if _, ok := app.readDocument("script.exe"); ok {
		t.Fatal("document with unaccepted extension must not be created")
	}
	assertContains(t, app.get("/home").Body.String(), "This file extension is not accepted")
}

func TestUpdateDocumentSignedOut(t *testing.T) {
	app := newTestApp(t)
	app.createDocument("changes.txt", "original")

	assertSignInRequired(t, app, app.post("/changes.txt", url.Values{"content": {"new content"}}))
	if content, _ := app.readDocument("changes.txt"); content != "original" {
		t.Fatalf("document was modified without sign in: %q", content)
	}
}

func TestNewDocumentForm(t *testing.T) {
	app := newTestApp(t)
	app.signIn()

	rec := app.get("/new")
	assertStatus(t, rec, http.StatusOK)
	assertContains(t, rec.Body.String(), "<input")
	assertContains(t, rec.Body.String(), `<button type="submit"`)
}

func TestNewDocumentFormSignedOut(t *testing.T) {
	app := newTestApp(t)
	assertSignInRequired(t, app, app.get("/new"))
}

func TestCreateDocument(t *testing.T) {
	app := newTestApp(t)
	app.signIn()

	rec := app.post("/new", url.Values{"newfile": {"test.txt"}})
	assertRedirect(t, rec, "/home")

	home := app.get("/home")
	assertStatus(t, home, http.StatusOK)
	assertContains(t, home.Body.String(), "test.txt has been created")
	assertContains(t, home.Body.String(), `href="/test.txt"`)

	if content, ok := app.readDocument("test.txt"); !ok || content != "" {
		t.Fatalf("expected empty document, got %q (exists=%v)", content, ok)
	}
}

func TestCreateDocumentValidation(t *testing.T) {
	cases := []struct {
		name    string
		newfile string
		want    string
	}{
		{name: "empty", newfile: "", want: "A name is required"},
		{name: "too long", newfile: strings.Repeat("a", 101) + ".txt", want: "A name between 1 and 100 characters is required"},
		{name: "bad extension", newfile: "notes.exe", want: "This file extension is not accepted"},
		{name: "no extension", newfile: "notes", want: "This file extension is not accepted"},
		{name: "already exists", newfile: "taken.md", want: "taken.md already exists"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := newTestApp(t)
			app.createDocument("taken.md", "keep")
			app.signIn()

			rec := app.post("/new", url.Values{"newfile": {tc.newfile}})
			assertStatus(t, rec, http.StatusUnprocessableEntity)
			assertContains(t, rec.Body.String(), tc.want)
			assertContains(t, rec.Body.String(), `name="newfile"`)

			if content, _ := app.readDocument("taken.md"); content != "keep" {
				t.Fatalf("existing document was modified: %q", content)
			}
		})
	}
}

func TestCreateDocumentSignedOut(t *testing.T) {
	app := newTestApp(t)
	assertSignInRequired(t, app, app.post("/new", url.Values{"newfile": {"test.txt"}}))
	if _, ok := app.readDocument("test.txt"); ok {
		t.Fatal("document must not be created without sign in")
	}
}

func TestDeleteDocument(t *testing.T) {
	app := newTestApp(t)
	app.createDocument("test.txt", "")
	app.signIn()

	rec := app.post("/test.txt/delete", nil)
	assertRedirect(t, rec, "/home")

	home := app.get("/home")
	assertContains(t, home.Body.String(), "test.txt has been deleted")
	assertNotContains(t, home.Body.String(), `href="/test.txt"`)
	if _, ok := app.readDocument("test.txt"); ok {
		t.Fatal("document still exists")
	}
}

func TestDeleteMissingDocument(t *testing.T) {
	app := newTestApp(t)
	app.signIn()
	assertRedirect(t, app.post("/ghost.txt/delete", nil), "/home")
	assertContains(t, app.get("/home").Body.String(), "ghost.txt does not exist")
}

func TestDeleteDocumentSignedOut(t *testing.T) {
	app := newTestApp(t)
	app.createDocument("test.txt", "")
	assertSignInRequired(t, app, app.post("/test.txt/delete", nil))
	if _, ok := app.readDocument("test.txt"); !ok {
		t.Fatal("document must not be deleted without sign in")
	}
}

func TestDuplicateDocumentForm(t *testing.T) {
	app := newTestApp(t)
	app.createDocument("about.md", "# About")
	app.signIn()

	rec := app.get("/about.md/duplicate")
	assertStatus(t, rec, http.StatusOK)
	assertContains(t, rec.Body.String(), `name="newfilename"`)
	assertContains(t, rec.Body.String(), `value="about-copy.md"`)
}

func TestDuplicateDocument(t *testing.T) {
	app := newTestApp(t)
	app.createDocument("about.md", "# About")
	app.signIn()

	rec := app.post("/about.md/duplicate", url.Values{"newfilename": {"about2.md"}})
	assertRedirect(t, rec, "/home")
	assertContains(t, app.get("/home").Body.String(), "about.md has been duplicated as about2.md")

	if content, ok := app.readDocument("about2.md"); !ok || content != "# About" {
		t.Fatalf("unexpected copy: %q (exists=%v)", content, ok)
	}
}

func TestDuplicateDocumentValidation(t *testing.T) {
	app := newTestApp(t)
	app.createDocument("about.md", "# About")
	app.createDocument("taken.md", "keep")
	app.signIn()

	rec := app.post("/about.md/duplicate", url.Values{"newfilename": {"about.exe"}})
	assertStatus(t, rec, http.StatusUnprocessableEntity)
	assertContains(t, rec.Body.String(), "This file extension is not accepted")

	rec = app.post("/about.md/duplicate", url.Values{"newfilename": {"taken.md"}})
	assertStatus(t, rec, http.StatusUnprocessableEntity)
	assertContains(t, rec.Body.String(), "taken.md already exists")
	if content, _ := app.readDocument("taken.md"); content != "keep" {
		t.Fatalf("existing document was overwritten: %q", content)
	}
}

func TestDuplicateMissingDocument(t *testing.T) {
	app := newTestApp(t)
	app.signIn()
	assertRedirect(t, app.post("/ghost.md/duplicate", url.Values{"newfilename": {"copy.md"}}), "/home")
	if _, ok := app.readDocument("copy.md"); ok {
		t.Fatal("copy must not be created from a missing document")
	}
}

func TestDuplicateDocumentSignedOut(t *testing.T) {
	app := newTestApp(t)
	app.createDocument("about.md", "# About")
	assertSignInRequired(t, app, app.post("/about.md/duplicate", url.Values{"newfilename": {"about2.md"}}))
	if _, ok := app.readDocument("about2.md"); ok {
		t.Fatal("document must not be duplicated without sign in")
	}
}

func TestSuggestCopyName(t *testing.T) {
	cases := map[string]string{
		"about.md":   "about-copy.md",
		"notes.txt":  "notes-copy.txt",
		"archive":    "archive-copy",
		"a.b.c.yaml": "a.b.c-copy.yaml",
	}
	for in, want := range cases {
		if got := suggestCopyName(in); got != want {
			t.Fatalf("suggestCopyName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDocumentNamesWithURLMetacharacters(t *testing.T) {
	for _, name := range []string{"a?b.txt", "c#d.txt", "50%.txt"} {
		t.Run(name, func(t *testing.T) {
			app := newTestApp(t)
			app.signIn()

			assertRedirect(t, app.post("/new", url.Values{"newfile": {name}}), "/home")
			escaped := "/" + url.PathEscape(name)

			home := app.get("/home")
			assertContains(t, home.Body.String(), `href="`+escaped+`"`)
			assertContains(t, home.Body.String(), `action="`+escaped+`/delete"`)

			assertStatus(t, app.get(escaped), http.StatusOK)

			edit := app.get(escaped + "/edit")
			assertStatus(t, edit, http.StatusOK)
			assertContains(t, edit.Body.String(), `action="`+escaped+`"`)

			duplicate := app.get(escaped + "/duplicate")
			assertStatus(t, duplicate, http.StatusOK)
			assertContains(t, duplicate.Body.String(), `action="`+escaped+`/duplicate"`)

			assertRedirect(t, app.post(escaped, url.Values{"content": {"hello"}}), "/home")
			if content, _ := app.readDocument(name); content != "hello" {
				t.Fatalf("unexpected content: %q", content)
			}

			assertRedirect(t, app.post(escaped+"/delete", nil), "/home")
			if _, ok := app.readDocument(name); ok {
				t.Fatalf("%s should have been deleted", name)
			}
		})
	}
}
