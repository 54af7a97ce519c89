package service

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/rarefindshq/rarefinds-server/internal/db"
	"github.com/rarefindshq/rarefinds-server/internal/model"
	"github.com/rarefindshq/rarefinds-server/internal/tmdb"
)

func TestMain(m *testing.M) {
	// Setup: in-memory DB so tests never touch a real catalog
	db.InitDB(":memory:")

	code := m.Run()

	if err := db.CloseDB(); err != nil {
		fmt.Printf("CloseDB error: %v\n", err)
	}
	os.Exit(code)
}

// resetDB wipes all catalog tables between tests
func resetDB(t *testing.T) {
	t.Helper()
	for _, table := range []string{
		"cast_members", "title_genres", "home_section_items", "home_sections",
		"titles", "genres", "people", "users", "global_configs",
	} {
		if err := db.DB.Exec("DELETE FROM " + table).Error; err != nil {
			t.Fatalf("failed to reset table %s: %v", table, err)
		}
	}
}

// newFakeTMDB spins an httptest server answering fixed JSON per path
func newFakeTMDB(t *testing.T, responses map[string]string) (*httptest.Server, *tmdb.Client) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := responses[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"status_message":"not found"}`))
			return
		}
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	client := tmdb.NewClient("test-key", "")
	client.SetBaseURL(srv.URL)
	return srv, client
}

const novaDetail = `{
	"id":42,"title":"Nova","release_date":"2021-07-01","overview":"A star is reborn.",
	"poster_path":"/nova.jpg",
	"genres":[{"name":"Sci-Fi"},{"name":"Drama"}],
	"credits":{"cast":[
		{"name":"A","character":"Lead","profile_path":"/a.jpg"},
		{"name":"B","character":"Support"}
	]}
}`

func TestSyncMovie_TwoGenresTwoCast(t *testing.T) {
	resetDB(t)
	_, client := newFakeTMDB(t, map[string]string{"/movie/42": novaDetail})
	svc := NewSyncService(client)

	report := svc.SyncCandidate(tmdb.Candidate{ID: 42, MediaType: "movie", Title: "Nova"})
	if !report.OK() {
		t.Fatalf("sync failed: %s", report.Summary())
	}

	var title model.Title
	if err := db.DB.Where("title = ?", "Nova").First(&title).Error; err != nil {
		t.Fatalf("title not created: %v", err)
	}
	if title.Year != 2021 {
		t.Errorf("expected year 2021, got %d", title.Year)
	}
	if title.Kind != model.KindMovie || !title.Published {
		t.Errorf("unexpected title attributes: %+v", title)
	}
	if title.Poster != tmdb.ImageBaseURL+"/nova.jpg" {
		t.Errorf("poster not resolved: %s", title.Poster)
	}

	var genreCount, linkCount, personCount, castCount int64
	db.DB.Model(&model.Genre{}).Count(&genreCount)
	db.DB.Model(&model.TitleGenre{}).Count(&linkCount)
	db.DB.Model(&model.Person{}).Count(&personCount)
	db.DB.Model(&model.CastMember{}).Count(&castCount)
	if genreCount != 2 || linkCount != 2 || personCount != 2 || castCount != 2 {
		t.Errorf("expected 2/2/2/2 rows, got genres=%d links=%d people=%d cast=%d",
			genreCount, linkCount, personCount, castCount)
	}

	var cast []model.CastMember
	db.DB.Where("title_id = ?", title.ID).Order("position asc").Find(&cast)
	if len(cast) != 2 || cast[0].Position != 0 || cast[1].Position != 1 {
		t.Errorf("cast positions wrong: %+v", cast)
	}
	if cast[0].Role != "Lead" || cast[1].Role != "Support" {
		t.Errorf("cast roles wrong: %+v", cast)
	}
}

func TestSyncMovie_Idempotent(t *testing.T) {
	resetDB(t)
	_, client := newFakeTMDB(t, map[string]string{"/movie/42": novaDetail})
	svc := NewSyncService(client)

	cand := tmdb.Candidate{ID: 42, MediaType: "movie", Title: "Nova"}
	for i := 0; i < 3; i++ {
		if report := svc.SyncCandidate(cand); !report.OK() {
			t.Fatalf("sync %d failed: %s", i, report.Summary())
		}
	}

	var titleCount, genreCount, linkCount, personCount, castCount int64
	db.DB.Model(&model.Title{}).Count(&titleCount)
	db.DB.Model(&model.Genre{}).Count(&genreCount)
	db.DB.Model(&model.TitleGenre{}).Count(&linkCount)
	db.DB.Model(&model.Person{}).Count(&personCount)
	db.DB.Model(&model.CastMember{}).Count(&castCount)

	if titleCount != 1 {
		t.Errorf("expected exactly 1 title row after repeated syncs, got %d", titleCount)
	}
	if genreCount != 2 || linkCount != 2 || personCount != 2 || castCount != 2 {
		t.Errorf("link rows duplicated: genres=%d links=%d people=%d cast=%d",
			genreCount, linkCount, personCount, castCount)
	}
}

func TestSyncMovie_TruncatesCastAtTwelve(t *testing.T) {
	resetDB(t)

	var entries []string
	for i := 0; i < 14; i++ {
		entries = append(entries, fmt.Sprintf(`{"name":"Actor %02d","character":"Role %02d"}`, i, i))
	}
	detail := fmt.Sprintf(`{
		"id":50,"title":"Ensemble","release_date":"2019-01-01",
		"genres":[],"credits":{"cast":[%s]}
	}`, strings.Join(entries, ","))

	_, client := newFakeTMDB(t, map[string]string{"/movie/50": detail})
	svc := NewSyncService(client)

	report := svc.SyncCandidate(tmdb.Candidate{ID: 50, MediaType: "movie", Title: "Ensemble"})
	if !report.OK() {
		t.Fatalf("sync failed: %s", report.Summary())
	}
	if report.CastLinked != 12 {
		t.Errorf("expected 12 cast links, got %d", report.CastLinked)
	}

	var cast []model.CastMember
	db.DB.Order("position asc").Find(&cast)
	if len(cast) != 12 {
		t.Fatalf("expected 12 cast rows, got %d", len(cast))
	}
	for i, c := range cast {
		if c.Position != i {
			t.Errorf("positions not contiguous at %d: got %d", i, c.Position)
		}
	}
}

func TestResync_PrunesDroppedCast(t *testing.T) {
	resetDB(t)

	first := `{"id":60,"title":"Shift","release_date":"2020-01-01","genres":[],
		"credits":{"cast":[{"name":"A","character":"Lead"},{"name":"B","character":"Support"}]}}`
	second := `{"id":60,"title":"Shift","release_date":"2020-01-01","genres":[],
		"credits":{"cast":[{"name":"B","character":"Lead"},{"name":"C","character":"Support"}]}}`

	responses := map[string]string{"/movie/60": first}
	_, client := newFakeTMDB(t, responses)
	svc := NewSyncService(client)

	cand := tmdb.Candidate{ID: 60, MediaType: "movie", Title: "Shift"}
	if report := svc.SyncCandidate(cand); !report.OK() {
		t.Fatalf("first sync failed: %s", report.Summary())
	}

	responses["/movie/60"] = second
	if report := svc.SyncCandidate(cand); !report.OK() {
		t.Fatalf("second sync failed: %s", report.Summary())
	}

	var title model.Title
	db.DB.Where("title = ?", "Shift").First(&title)

	var cast []model.CastMember
	db.DB.Where("title_id = ?", title.ID).Order("position asc").Find(&cast)
	if len(cast) != 2 {
		t.Fatalf("expected 2 cast rows after resync, got %d", len(cast))
	}

	names := map[uint]string{}
	var people []model.Person
	db.DB.Find(&people)
	for _, p := range people {
		names[p.ID] = p.Name
	}
	if names[cast[0].PersonID] != "B" || names[cast[1].PersonID] != "C" {
		t.Errorf("expected cast B,C after resync, got %s,%s",
			names[cast[0].PersonID], names[cast[1].PersonID])
	}
	// Person rows are never deleted by a sync, only the link rows are pruned
	if len(people) != 3 {
		t.Errorf("expected 3 person rows (A kept), got %d", len(people))
	}

	// B got re-ranked from position 1 to 0
	if cast[0].Position != 0 || cast[0].Role != "Lead" {
		t.Errorf("positions/roles not recomputed: %+v", cast[0])
	}
}

func TestSync_SameNameOverwrites(t *testing.T) {
	resetDB(t)

	responses := map[string]string{
		"/movie/42": novaDetail,
		"/movie/43": `{"id":43,"title":"Nova","release_date":"1999-03-19","overview":"Remake.",
			"genres":[],"credits":{"cast":[]}}`,
	}
	_, client := newFakeTMDB(t, responses)
	svc := NewSyncService(client)

	if report := svc.SyncCandidate(tmdb.Candidate{ID: 42, MediaType: "movie", Title: "Nova"}); !report.OK() {
		t.Fatalf("first sync failed: %s", report.Summary())
	}
	if report := svc.SyncCandidate(tmdb.Candidate{ID: 43, MediaType: "movie", Title: "Nova"}); !report.OK() {
		t.Fatalf("second sync failed: %s", report.Summary())
	}

	var titles []model.Title
	db.DB.Where("title = ?", "Nova").Find(&titles)
	if len(titles) != 1 {
		t.Fatalf("natural key mapped to %d rows, expected 1", len(titles))
	}
	// Full replace, last write wins
	if titles[0].Year != 1999 || titles[0].Overview != "Remake." || titles[0].ExternalID != 43 {
		t.Errorf("second sync did not overwrite attributes: %+v", titles[0])
	}
}

func TestSyncPerson(t *testing.T) {
	resetDB(t)

	_, client := newFakeTMDB(t, map[string]string{
		"/person/7": `{"id":7,"name":"Ada Lovelace","biography":"Mathematician.","profile_path":"/x.jpg"}`,
	})
	svc := NewSyncService(client)

	report := svc.SyncCandidate(tmdb.Candidate{ID: 7, MediaType: "person", Name: "Ada Lovelace"})
	if !report.OK() {
		t.Fatalf("sync failed: %s", report.Summary())
	}
	if !strings.Contains(report.Summary(), "Ada Lovelace") {
		t.Errorf("report does not name the synced entity: %s", report.Summary())
	}

	var person model.Person
	if err := db.DB.Where("name = ?", "Ada Lovelace").First(&person).Error; err != nil {
		t.Fatalf("person not created: %v", err)
	}
	if person.Avatar != tmdb.ImageBaseURL+"/x.jpg" {
		t.Errorf("avatar not resolved: %s", person.Avatar)
	}
	if person.Biography != "Mathematician." {
		t.Errorf("biography not stored: %s", person.Biography)
	}

	// 人物路径是终点：不碰 titles/links
	var titleCount int64
	db.DB.Model(&model.Title{}).Count(&titleCount)
	if titleCount != 0 {
		t.Errorf("person sync must not create titles, got %d", titleCount)
	}
}

func TestSync_FetchFailureWritesNothing(t *testing.T) {
	resetDB(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()
	client := tmdb.NewClient("test-key", "")
	client.SetBaseURL(srv.URL)
	svc := NewSyncService(client)

	report := svc.SyncCandidate(tmdb.Candidate{ID: 42, MediaType: "movie", Title: "Nova"})
	if report.OK() {
		t.Fatal("expected failure report")
	}
	if report.Stage != StageFetch {
		t.Errorf("expected fetch stage, got %s", report.Stage)
	}

	var titleCount, linkCount, castCount int64
	db.DB.Model(&model.Title{}).Count(&titleCount)
	db.DB.Model(&model.TitleGenre{}).Count(&linkCount)
	db.DB.Model(&model.CastMember{}).Count(&castCount)
	if titleCount != 0 || linkCount != 0 || castCount != 0 {
		t.Errorf("failed fetch must not write rows: titles=%d links=%d cast=%d",
			titleCount, linkCount, castCount)
	}
}

func TestSync_TitleUpsertFailureAbortsLinks(t *testing.T) {
	resetDB(t)

	// 详情没有任何展示名，Title upsert 必然失败，后面的关联一行都不能写
	_, client := newFakeTMDB(t, map[string]string{
		"/movie/42": `{"id":42,"release_date":"2021-07-01",
			"genres":[{"name":"Sci-Fi"}],
			"credits":{"cast":[{"name":"A","character":"Lead"}]}}`,
	})
	svc := NewSyncService(client)

	report := svc.SyncCandidate(tmdb.Candidate{ID: 42, MediaType: "movie"})
	if report.OK() {
		t.Fatal("expected failure report")
	}
	if report.Stage != StageTitle {
		t.Errorf("expected title upsert stage, got %s", report.Stage)
	}

	var genreCount, linkCount, personCount, castCount int64
	db.DB.Model(&model.Genre{}).Count(&genreCount)
	db.DB.Model(&model.TitleGenre{}).Count(&linkCount)
	db.DB.Model(&model.Person{}).Count(&personCount)
	db.DB.Model(&model.CastMember{}).Count(&castCount)
	if genreCount != 0 || linkCount != 0 || personCount != 0 || castCount != 0 {
		t.Errorf("aborted sync wrote link rows: genres=%d links=%d people=%d cast=%d",
			genreCount, linkCount, personCount, castCount)
	}
}

func TestBeginSync_RejectsReentrant(t *testing.T) {
	if !BeginSync("first") {
		t.Fatal("first BeginSync should succeed")
	}
	if BeginSync("second") {
		t.Error("re-entrant BeginSync should be rejected")
	}
	endSync("done")
	if !BeginSync("third") {
		t.Error("BeginSync should succeed after endSync")
	}
	endSync("done")

	if got := CurrentSyncStatus(); got.IsRunning || got.LastResult != "done" {
		t.Errorf("unexpected status: %+v", got)
	}
}
