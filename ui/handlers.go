package ui

import (
	"html/template"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"abstat/app"
	"abstat/internal/errors"
)

// Page is the data every form template renders
type Page struct {
	Active     string
	Form       url.Values
	ReportHTML template.HTML
	Error      string
}

// Value returns the submitted (or default) form value for key
func (p Page) Value(key string) string {
	return p.Form.Get(key)
}

func (a *App) handleSignificanceForm(w http.ResponseWriter, r *http.Request) {
	d := a.service.Defaults()
	form := url.Values{}
	form.Set("test_type", "proportion")
	form.Set("tail", string(d.TailKind))
	form.Set("one_tailed_mode", string(d.OneTailedMode))
	form.Set("confidence", formatFloat(d.ConfidenceLevel))
	form.Set("pooled", strconv.FormatBool(d.Pooled))

	a.renderTemplate(w, http.StatusOK, "significance", Page{Active: "significance", Form: form})
}

func (a *App) handleSignificanceSubmit(w http.ResponseWriter, r *http.Request) {
	page := Page{Active: "significance"}
	if err := r.ParseForm(); err != nil {
		page.Error = "could not read form: " + err.Error()
		a.renderTemplate(w, http.StatusBadRequest, "significance", page)
		return
	}
	page.Form = r.PostForm
	if page.Form.Get("pooled") == "" {
		page.Form.Set("pooled", "false")
	}

	req, err := significanceRequestFromForm(page.Form)
	if err == nil {
		var out *app.SignificanceOutcome
		out, err = a.service.AnalyzeSignificance(r.Context(), req)
		if err == nil {
			page.ReportHTML = template.HTML(out.Report.HTML())
		}
	}
	if err != nil {
		a.logger.Debug("significance form rejected", zap.Error(err))
		page.Error = err.Error()
		a.renderTemplate(w, http.StatusUnprocessableEntity, "significance", page)
		return
	}

	a.renderTemplate(w, http.StatusOK, "significance", page)
}

func (a *App) handleSampleSizeForm(w http.ResponseWriter, r *http.Request) {
	d := a.service.Defaults()
	form := url.Values{}
	form.Set("sample_type", "proportion")
	form.Set("tail", string(d.TailKind))
	form.Set("alpha", formatFloat(d.Alpha))
	form.Set("power", formatFloat(d.Power))
	form.Set("split_ratio", formatFloat(d.SplitRatio))

	a.renderTemplate(w, http.StatusOK, "samplesize", Page{Active: "sample-size", Form: form})
}

func (a *App) handleSampleSizeSubmit(w http.ResponseWriter, r *http.Request) {
	page := Page{Active: "sample-size"}
	if err := r.ParseForm(); err != nil {
		page.Error = "could not read form: " + err.Error()
		a.renderTemplate(w, http.StatusBadRequest, "samplesize", page)
		return
	}
	page.Form = r.PostForm

	req, err := sampleSizeRequestFromForm(page.Form)
	if err == nil {
		var out *app.SampleSizeOutcome
		out, err = a.service.PlanSampleSize(r.Context(), req)
		if err == nil {
			page.ReportHTML = template.HTML(out.Report.HTML())
		}
	}
	if err != nil {
		a.logger.Debug("sample size form rejected", zap.Error(err))
		page.Error = err.Error()
		a.renderTemplate(w, http.StatusUnprocessableEntity, "samplesize", page)
		return
	}

	a.renderTemplate(w, http.StatusOK, "samplesize", page)
}

func significanceRequestFromForm(form url.Values) (app.SignificanceRequest, error) {
	f := formReader{form: form}
	req := app.SignificanceRequest{
		TestType:        form.Get("test_type"),
		Tail:            form.Get("tail"),
		OneTailedMode:   form.Get("one_tailed_mode"),
		ConfidenceLevel: f.float("confidence"),
		Test: app.GroupInput{
			Value:      f.float("test_value"),
			SampleSize: f.int("n_test"),
			StdDev:     f.float("std_test"),
		},
		Control: app.GroupInput{
			Value:      f.float("control_value"),
			SampleSize: f.int("n_control"),
			StdDev:     f.float("std_control"),
		},
	}
	pooled := form.Get("pooled") != "false"
	req.Pooled = &pooled
	return req, f.err
}

func sampleSizeRequestFromForm(form url.Values) (app.SampleSizeRequest, error) {
	f := formReader{form: form}
	req := app.SampleSizeRequest{
		TestType:   form.Get("sample_type"),
		Tail:       form.Get("tail"),
		Alpha:      f.float("alpha"),
		Power:      f.float("power"),
		SplitRatio: f.float("split_ratio"),
		Baseline:   f.float("baseline"),
		Target:     f.float("target"),
		Delta:      f.float("delta"),
		Sigma:      f.float("sigma"),
	}
	return req, f.err
}

// formReader parses optional numeric fields, keeping the first error.
// Empty fields become nil so the service applies its defaults.
type formReader struct {
	form url.Values
	err  error
}

func (f *formReader) float(key string) *float64 {
	raw := strings.TrimSpace(f.form.Get(key))
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		f.fail(key, raw)
		return nil
	}
	return &v
}

func (f *formReader) int(key string) *int {
	raw := strings.TrimSpace(f.form.Get(key))
	if raw == "" {
		return nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		f.fail(key, raw)
		return nil
	}
	return &v
}

func (f *formReader) fail(key, raw string) {
	if f.err == nil {
		f.err = errors.InvalidInput(key + " must be a number, got " + strconv.Quote(raw))
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
