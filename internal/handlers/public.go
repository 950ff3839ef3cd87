// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"clubhouse/internal/cache"
	"clubhouse/internal/content"
	"clubhouse/internal/middleware"
	"clubhouse/internal/models"
	"clubhouse/internal/render"
	"clubhouse/internal/store"
)

const (
	newsPerPage  = 10
	homeNews     = 5
	homeFixtures = 3
	homeResults  = 5
	pollCookie   = "ch_poll_"
)

// SettingsReader loads every site setting.
type SettingsReader interface {
	All(ctx context.Context) (models.SiteSettings, error)
}

// FeatureFlags reports whether an optional public feature is on.
type FeatureFlags interface {
	Enabled(ctx context.Context, key string) (bool, error)
}

// PollBackend reads poll results and records votes.
type PollBackend interface {
	Results(ctx context.Context, pollID uuid.UUID) (*models.PollResults, error)
	LatestOpen(ctx context.Context) (uuid.UUID, error)
	Vote(ctx context.Context, pollID, optionID uuid.UUID, voterHash string) error
}

// Public groups the handlers of the public club site. Every read goes
// through the content service, which only returns visible rows to
// anonymous visitors and serves them from the query cache.
type Public struct {
	renderer *render.Renderer
	content  *content.Service
	settings SettingsReader
	features FeatureFlags
	polls    PollBackend
	cache    *cache.QueryCache
}

// NewPublic creates a new Public handler group. qc may be nil, in which
// case settings, toggles and poll results are read on every request.
func NewPublic(renderer *render.Renderer, svc *content.Service, settings SettingsReader, features FeatureFlags, polls PollBackend, qc *cache.QueryCache) *Public {
	return &Public{
		renderer: renderer,
		content:  svc,
		settings: settings,
		features: features,
		polls:    polls,
		cache:    qc,
	}
}

// Mount registers the public routes.
func (p *Public) Mount(r chi.Router) {
	r.Get("/", p.Home)
	r.Get("/fixtures", p.Fixtures)
	r.Get("/news", p.News)
	r.Get("/news/{slug}", p.Article)
	r.Post("/news/{slug}/comments", p.Comment)
	r.Get("/teams", p.Teams)
	r.Get("/club", p.Club)
	r.Get("/pages/{slug}", p.Page)
	r.Get("/gallery", p.Gallery)
	r.Get("/gallery/{slug}", p.Album)
	r.Get("/sponsors", p.Sponsors)
	r.Get("/events", p.Events)
	r.Get("/contact", p.ContactForm)
	r.Post("/contact", p.Contact)
	r.Get("/join", p.JoinForm)
	r.Post("/join", p.Join)
	r.Post("/polls/{id}/vote", p.Vote)
}

// Globals supplies the data the public layout needs on every page.
func (p *Public) Globals(r *http.Request) map[string]any {
	ctx := r.Context()
	features := make(map[string]bool, len(publicFeatures))
	for _, key := range publicFeatures {
		features[key] = p.enabled(ctx, key)
	}

	rows, err := p.content.PublicList(ctx, "announcements", content.Filter{})
	if err != nil {
		slog.Warn("announcements not loaded", "error", err)
	}
	return map[string]any{
		"Settings":      p.siteSettings(ctx),
		"Features":      features,
		"Announcements": activeAnnouncements(rows, time.Now()),
	}
}

var publicFeatures = []string{store.FeatureGallery, store.FeaturePolls, store.FeatureJoinForm, store.FeatureComments}

// Home renders the front page: latest news, next fixtures, recent
// results, the open poll and the sponsors.
func (p *Public) Home(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	news, err := p.content.PublicList(ctx, "news", content.Filter{Limit: homeNews})
	if err != nil {
		serverError(w, "home: list news failed", err)
		return
	}
	fixtures, err := p.content.PublicList(ctx, "fixtures", content.Filter{})
	if err != nil {
		serverError(w, "home: list fixtures failed", err)
		return
	}
	sponsors, err := p.content.PublicList(ctx, "sponsors", content.Filter{})
	if err != nil {
		slog.Warn("home: sponsors not loaded", "error", err)
	}

	upcoming, results := splitFixtures(fixtures, time.Now())
	data := map[string]any{
		"News":     news,
		"Upcoming": firstN(upcoming, homeFixtures),
		"Results":  firstN(results, homeResults),
		"Sponsors": sponsors,
	}
	if p.enabled(ctx, store.FeaturePolls) {
		if poll := p.openPoll(ctx); poll != nil {
			data["Poll"] = poll
			data["Voted"] = hasVoted(r, poll.PollID)
		}
	}

	p.renderer.Page(w, r, "public/home", &render.PageData{Data: data})
}

// Fixtures renders upcoming fixtures and past results.
func (p *Public) Fixtures(w http.ResponseWriter, r *http.Request) {
	rows, err := p.content.PublicList(r.Context(), "fixtures", content.Filter{})
	if err != nil {
		serverError(w, "list fixtures failed", err)
		return
	}
	upcoming, results := splitFixtures(rows, time.Now())
	p.renderer.Page(w, r, "public/fixtures", &render.PageData{
		Title: "Fixtures & results",
		Data:  map[string]any{"Upcoming": upcoming, "Results": results},
	})
}

// News renders a page of published articles.
func (p *Public) News(w http.ResponseWriter, r *http.Request) {
	page := pageParam(r)
	rows, err := p.content.PublicList(r.Context(), "news", content.Filter{
		Limit:  newsPerPage + 1,
		Offset: uint64((page - 1) * newsPerPage),
	})
	if err != nil {
		serverError(w, "list news failed", err)
		return
	}
	data := map[string]any{}
	data["Articles"] = paginate(data, rows, page, newsPerPage)
	p.renderer.Page(w, r, "public/news", &render.PageData{Title: "News", Data: data})
}

// Article renders one published article and its approved comments.
func (p *Public) Article(w http.ResponseWriter, r *http.Request) {
	article, ok := p.find(w, r, "news", chi.URLParam(r, "slug"))
	if !ok {
		return
	}
	p.renderArticle(w, r, article, http.StatusOK, content.Values{}, map[string]string{})
}

func (p *Public) renderArticle(w http.ResponseWriter, r *http.Request, article models.Row, status int, values content.Values, errs map[string]string) {
	ctx := r.Context()
	data := map[string]any{
		"Article":     article,
		"Values":      values,
		"Errors":      errs,
		"Description": article.String("summary"),
	}
	if p.enabled(ctx, store.FeatureComments) {
		comments, err := p.content.PublicList(ctx, "comments", content.Filter{
			Where: map[string]any{"news_id": article.ID()},
		})
		if err != nil {
			slog.Warn("comments not loaded", "news_id", article.ID(), "error", err)
		}
		data["CommentsOn"] = true
		data["Comments"] = comments
	}
	p.renderer.Page(w, r, "public/article", &render.PageData{
		Title:  article.String("title"),
		Status: status,
		Data:   data,
	})
}

// Comment accepts a reader comment. It stays hidden until a moderator
// approves it.
func (p *Public) Comment(w http.ResponseWriter, r *http.Request) {
	if !p.enabled(r.Context(), store.FeatureComments) {
		p.renderer.NotFound(w, r)
		return
	}
	article, ok := p.find(w, r, "news", chi.URLParam(r, "slug"))
	if !ok {
		return
	}
	form := commentForm{
		AuthorName:  formValue(r, "author_name"),
		AuthorEmail: formValue(r, "author_email"),
		Body:        formValue(r, "body"),
	}
	values := content.Values{
		"author_name":  form.AuthorName,
		"author_email": form.AuthorEmail,
		"body":         form.Body,
	}
	if fields := checkForm(form); fields != nil {
		p.renderArticle(w, r, article, http.StatusUnprocessableEntity, values, fields)
		return
	}

	values["news_id"] = article.ID()
	if _, err := p.content.Submit(r.Context(), "comments", values); err != nil {
		msg, fields := mutationFeedback(err)
		render.SetFlash(w, render.Flash{Type: "error", Message: msg})
		p.renderArticle(w, r, article, http.StatusUnprocessableEntity, values, fields)
		return
	}
	redirectWithFlash(w, r, "/news/"+article.String("slug"), "success",
		"Thanks! Your comment will appear once a moderator approves it.")
}

// teamView is a team with its squad and training times.
type teamView struct {
	Team     models.Row
	Players  []models.Row
	Training []models.Row
}

// Teams renders every active team with its players and training times.
func (p *Public) Teams(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	teams, err := p.content.PublicList(ctx, "teams", content.Filter{})
	if err != nil {
		serverError(w, "list teams failed", err)
		return
	}
	players, err := p.content.PublicList(ctx, "players", content.Filter{})
	if err != nil {
		serverError(w, "list players failed", err)
		return
	}
	training, err := p.content.PublicList(ctx, "training_sessions", content.Filter{})
	if err != nil {
		serverError(w, "list training failed", err)
		return
	}

	p.renderer.Page(w, r, "public/teams", &render.PageData{
		Title: "Teams",
		Data:  map[string]any{"Teams": groupTeams(teams, players, training)},
	})
}

// Club renders the club pages, staff, honours and FAQs.
func (p *Public) Club(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	data := map[string]any{}
	for key, table := range map[string]string{
		"Pages":   "pages",
		"Staff":   "staff",
		"Honours": "honours",
		"FAQs":    "faqs",
	} {
		rows, err := p.content.PublicList(ctx, table, content.Filter{})
		if err != nil {
			serverError(w, "club: list "+table+" failed", err)
			return
		}
		data[key] = rows
	}
	p.renderer.Page(w, r, "public/club", &render.PageData{Title: "The club", Data: data})
}

// Page renders a published static page.
func (p *Public) Page(w http.ResponseWriter, r *http.Request) {
	page, ok := p.find(w, r, "pages", chi.URLParam(r, "slug"))
	if !ok {
		return
	}
	p.renderer.Page(w, r, "public/page", &render.PageData{
		Title: page.String("title"),
		Data:  map[string]any{"Page": page},
	})
}

// Gallery lists public albums.
func (p *Public) Gallery(w http.ResponseWriter, r *http.Request) {
	if !p.enabled(r.Context(), store.FeatureGallery) {
		p.renderer.NotFound(w, r)
		return
	}
	albums, err := p.content.PublicList(r.Context(), "gallery_albums", content.Filter{})
	if err != nil {
		serverError(w, "list albums failed", err)
		return
	}
	p.renderer.Page(w, r, "public/gallery", &render.PageData{
		Title: "Gallery",
		Data:  map[string]any{"Albums": albums},
	})
}

// Album renders the public photos of one album.
func (p *Public) Album(w http.ResponseWriter, r *http.Request) {
	if !p.enabled(r.Context(), store.FeatureGallery) {
		p.renderer.NotFound(w, r)
		return
	}
	album, ok := p.find(w, r, "gallery_albums", chi.URLParam(r, "slug"))
	if !ok {
		return
	}
	images, err := p.content.PublicList(r.Context(), "gallery_images", content.Filter{
		Where: map[string]any{"album_id": album.ID()},
	})
	if err != nil {
		serverError(w, "list photos failed", err)
		return
	}
	p.renderer.Page(w, r, "public/album", &render.PageData{
		Title: album.String("title"),
		Data:  map[string]any{"Album": album, "Images": images},
	})
}

// sponsorTier is one tier of the sponsors page.
type sponsorTier struct {
	Tier     string
	Sponsors []models.Row
}

// Sponsors renders active sponsors grouped by tier.
func (p *Public) Sponsors(w http.ResponseWriter, r *http.Request) {
	rows, err := p.content.PublicList(r.Context(), "sponsors", content.Filter{})
	if err != nil {
		serverError(w, "list sponsors failed", err)
		return
	}
	p.renderer.Page(w, r, "public/sponsors", &render.PageData{
		Title: "Sponsors",
		Data:  map[string]any{"Tiers": groupSponsors(rows)},
	})
}

// Events renders published events that have not finished.
func (p *Public) Events(w http.ResponseWriter, r *http.Request) {
	rows, err := p.content.PublicList(r.Context(), "events", content.Filter{})
	if err != nil {
		serverError(w, "list events failed", err)
		return
	}
	p.renderer.Page(w, r, "public/events", &render.PageData{
		Title: "Events",
		Data:  map[string]any{"Events": upcomingEvents(rows, time.Now())},
	})
}

// ContactForm renders the contact form.
func (p *Public) ContactForm(w http.ResponseWriter, r *http.Request) {
	p.renderer.Page(w, r, "public/contact", &render.PageData{
		Title: "Contact",
		Data:  map[string]any{"Values": content.Values{}, "Errors": map[string]string{}},
	})
}

// Contact stores a contact form submission for the inbox.
func (p *Public) Contact(w http.ResponseWriter, r *http.Request) {
	form := contactForm{
		Name:    formValue(r, "name"),
		Email:   formValue(r, "email"),
		Subject: formValue(r, "subject"),
		Message: formValue(r, "message"),
	}
	values := content.Values{
		"name":    form.Name,
		"email":   form.Email,
		"subject": form.Subject,
		"message": form.Message,
	}
	p.submit(w, r, "public/contact", "Contact", "contact_submissions", form, values,
		"Thanks for getting in touch. We will reply as soon as we can.")
}

// JoinForm renders the membership enquiry form.
func (p *Public) JoinForm(w http.ResponseWriter, r *http.Request) {
	if !p.enabled(r.Context(), store.FeatureJoinForm) {
		p.renderer.NotFound(w, r)
		return
	}
	p.renderJoin(w, r, http.StatusOK, content.Values{}, map[string]string{})
}

// Join stores a membership enquiry.
func (p *Public) Join(w http.ResponseWriter, r *http.Request) {
	if !p.enabled(r.Context(), store.FeatureJoinForm) {
		p.renderer.NotFound(w, r)
		return
	}
	form := joinForm{
		FullName:      formValue(r, "full_name"),
		Email:         formValue(r, "email"),
		Phone:         formValue(r, "phone"),
		PreferredTeam: formValue(r, "preferred_team"),
		Message:       formValue(r, "message"),
	}
	values := content.Values{
		"full_name":      form.FullName,
		"email":          form.Email,
		"phone":          form.Phone,
		"preferred_team": form.PreferredTeam,
		"message":        form.Message,
		"status":         "new",
	}
	p.submit(w, r, "public/join", "Join the club", "join_submissions", form, values,
		"Thanks for your interest. Someone from the club will be in touch.")
}

func (p *Public) renderJoin(w http.ResponseWriter, r *http.Request, status int, values content.Values, errs map[string]string) {
	teams, err := p.content.PublicList(r.Context(), "teams", content.Filter{})
	if err != nil {
		slog.Warn("join: teams not loaded", "error", err)
	}
	p.renderer.Page(w, r, "public/join", &render.PageData{
		Title:  "Join the club",
		Status: status,
		Data:   map[string]any{"Values": values, "Errors": errs, "Teams": teams},
	})
}

// submit validates a public form and inserts it into table, re-rendering
// the form with the visitor's input on failure.
func (p *Public) submit(w http.ResponseWriter, r *http.Request, tmpl, title, table string, form any, values content.Values, thanks string) {
	fail := func(errs map[string]string) {
		if tmpl == "public/join" {
			p.renderJoin(w, r, http.StatusUnprocessableEntity, values, errs)
			return
		}
		p.renderer.Page(w, r, tmpl, &render.PageData{
			Title:  title,
			Status: http.StatusUnprocessableEntity,
			Data:   map[string]any{"Values": values, "Errors": errs},
		})
	}

	if fields := checkForm(form); fields != nil {
		fail(fields)
		return
	}
	if _, err := p.content.Submit(r.Context(), table, values); err != nil {
		msg, fields := mutationFeedback(err)
		render.SetFlash(w, render.Flash{Type: "error", Message: msg})
		fail(fields)
		return
	}
	redirectWithFlash(w, r, r.URL.Path, "success", thanks)
}

// Vote records a poll vote. One vote per visitor per poll, where a
// visitor is identified by a hash of the poll, client address and user
// agent.
func (p *Public) Vote(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !p.enabled(ctx, store.FeaturePolls) {
		p.renderer.NotFound(w, r)
		return
	}
	pollID, ok := idParam(r)
	if !ok {
		p.renderer.NotFound(w, r)
		return
	}
	optionID, err := uuid.Parse(r.PostFormValue("option_id"))
	if err != nil {
		redirectWithFlash(w, r, "/", "error", "Choose an option before voting.")
		return
	}

	err = p.polls.Vote(ctx, pollID, optionID, voterHash(pollID, middleware.ClientIP(r), r.UserAgent()))
	switch {
	case errors.Is(err, store.ErrNotFound):
		p.renderer.NotFound(w, r)
		return
	case errors.Is(err, store.ErrPollClosed):
		redirectWithFlash(w, r, "/", "warning", "This poll has closed.")
		return
	case errors.Is(err, store.ErrAlreadyVoted):
		rememberVote(w, pollID)
		redirectWithFlash(w, r, "/", "info", "You have already voted in this poll.")
		return
	case err != nil:
		serverError(w, "record vote failed", err)
		return
	}

	p.content.Invalidate(ctx, "polls", pollID, "vote")
	p.content.Invalidate(ctx, "poll_votes", pollID, "vote")
	rememberVote(w, pollID)

	if r.Header.Get("HX-Request") == "true" {
		poll, err := p.pollResults(ctx, pollID)
		if err != nil {
			serverError(w, "load poll results failed", err)
			return
		}
		p.renderer.Page(w, r, "public/poll", &render.PageData{
			Data: map[string]any{"Poll": poll, "Voted": true},
		})
		return
	}
	redirectWithFlash(w, r, "/", "success", "Thanks for voting!")
}

// find loads a visible row by slug, rendering 404 when there is none.
func (p *Public) find(w http.ResponseWriter, r *http.Request, table, slug string) (models.Row, bool) {
	row, err := p.content.PublicFind(r.Context(), table, "slug", slug)
	if errors.Is(err, content.ErrNotFound) {
		p.renderer.NotFound(w, r)
		return nil, false
	}
	if err != nil {
		serverError(w, "find "+table+" failed", err)
		return nil, false
	}
	return row, true
}

// enabled reports whether a feature is on. A failed lookup turns the
// feature off rather than failing the page.
func (p *Public) enabled(ctx context.Context, key string) bool {
	on, err := cache.Remember(ctx, p.cache, "feature_toggles", "enabled:"+key, func(ctx context.Context) (bool, error) {
		return p.features.Enabled(ctx, key)
	})
	if err != nil {
		slog.Warn("feature toggle lookup failed", "feature", key, "error", err)
		return false
	}
	return on
}

func (p *Public) siteSettings(ctx context.Context) models.SiteSettings {
	settings, err := cache.Remember(ctx, p.cache, "site_settings", "all", p.settings.All)
	if err != nil {
		slog.Warn("site settings not loaded", "error", err)
		return models.SiteSettings{}
	}
	return settings
}

func (p *Public) openPoll(ctx context.Context) *models.PollResults {
	id, err := p.polls.LatestOpen(ctx)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			slog.Warn("open poll lookup failed", "error", err)
		}
		return nil
	}
	poll, err := p.pollResults(ctx, id)
	if err != nil {
		slog.Warn("poll results not loaded", "poll_id", id, "error", err)
		return nil
	}
	return poll
}

func (p *Public) pollResults(ctx context.Context, id uuid.UUID) (*models.PollResults, error) {
	return cache.Remember(ctx, p.cache, "polls", "results:"+id.String(), func(ctx context.Context) (*models.PollResults, error) {
		return p.polls.Results(ctx, id)
	})
}

// voterHash identifies a voter without storing their address.
func voterHash(pollID uuid.UUID, clientIP, userAgent string) string {
	sum := sha256.Sum256([]byte(pollID.String() + "|" + clientIP + "|" + userAgent))
	return hex.EncodeToString(sum[:])
}

func rememberVote(w http.ResponseWriter, pollID uuid.UUID) {
	http.SetCookie(w, &http.Cookie{
		Name:     pollCookie + pollID.String(),
		Value:    "1",
		Path:     "/",
		MaxAge:   int((90 * 24 * time.Hour).Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func hasVoted(r *http.Request, pollID uuid.UUID) bool {
	_, err := r.Cookie(pollCookie + pollID.String())
	return err == nil
}

// splitFixtures separates unplayed future fixtures, soonest first, from
// played ones, latest first. Past fixtures without a score are left out.
func splitFixtures(rows []models.Row, now time.Time) (upcoming, results []models.Row) {
	for _, row := range rows {
		kickoff, _ := row.Time("kickoff_at")
		switch {
		case row.Score().Played():
			results = append(results, row)
		case kickoff.After(now):
			upcoming = append(upcoming, row)
		}
	}
	slices.SortStableFunc(upcoming, func(a, b models.Row) int {
		ta, _ := a.Time("kickoff_at")
		tb, _ := b.Time("kickoff_at")
		return ta.Compare(tb)
	})
	slices.SortStableFunc(results, func(a, b models.Row) int {
		ta, _ := a.Time("kickoff_at")
		tb, _ := b.Time("kickoff_at")
		return tb.Compare(ta)
	})
	return upcoming, results
}

// activeAnnouncements keeps announcements whose display window contains
// now. A missing bound is open.
func activeAnnouncements(rows []models.Row, now time.Time) []models.Row {
	var out []models.Row
	for _, row := range rows {
		if start, ok := row.Time("starts_at"); ok && start.After(now) {
			continue
		}
		if end, ok := row.Time("ends_at"); ok && !end.After(now) {
			continue
		}
		out = append(out, row)
	}
	return out
}

// upcomingEvents keeps events that have not ended. An event without an
// end time lasts until the end of its start day.
func upcomingEvents(rows []models.Row, now time.Time) []models.Row {
	var out []models.Row
	for _, row := range rows {
		end, ok := row.Time("ends_at")
		if !ok {
			start, ok := row.Time("starts_at")
			if !ok {
				continue
			}
			y, m, d := start.In(now.Location()).Date()
			end = time.Date(y, m, d+1, 0, 0, 0, 0, now.Location())
		}
		if end.After(now) {
			out = append(out, row)
		}
	}
	return out
}

// sponsorTiers is the display order of sponsor tiers.
var sponsorTiers = []string{"main", "kit", "partner", "community"}

func groupSponsors(rows []models.Row) []sponsorTier {
	byTier := make(map[string][]models.Row)
	for _, row := range rows {
		byTier[row.String("tier")] = append(byTier[row.String("tier")], row)
	}
	var out []sponsorTier
	for _, tier := range sponsorTiers {
		if len(byTier[tier]) > 0 {
			out = append(out, sponsorTier{Tier: tier, Sponsors: byTier[tier]})
		}
	}
	return out
}

func groupTeams(teams, players, training []models.Row) []teamView {
	playersByTeam := make(map[string][]models.Row)
	for _, pl := range players {
		playersByTeam[pl.String("team_id")] = append(playersByTeam[pl.String("team_id")], pl)
	}
	trainingByTeam := make(map[string][]models.Row)
	for _, ts := range training {
		if n, ok := ts.Int("weekday"); ok && n >= 0 && n <= 6 {
			ts["weekday_name"] = time.Weekday(n).String()
		}
		trainingByTeam[ts.String("team_id")] = append(trainingByTeam[ts.String("team_id")], ts)
	}

	out := make([]teamView, 0, len(teams))
	for _, t := range teams {
		id := t.ID().String()
		out = append(out, teamView{Team: t, Players: playersByTeam[id], Training: trainingByTeam[id]})
	}
	return out
}

func firstN[T any](s []T, n int) []T {
	if len(s) > n {
		return s[:n]
	}
	return s
}
