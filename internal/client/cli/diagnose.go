package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/cropdoc/internal/client/i18n"
	"github.com/dmitrijs2005/cropdoc/internal/client/media"
	"github.com/dmitrijs2005/cropdoc/internal/client/models"
	"github.com/dmitrijs2005/cropdoc/internal/client/services"
)

const historyPageSize = 10

// Diagnose uploads a leaf photo and prints the diagnosis.
//
//	diagnose <image> [crop]
func (a *App) Diagnose(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("usage: diagnose <image> [crop]")
	}
	crop := ""
	if len(args) > 1 {
		crop = args[1]
	} else {
		var err error
		crop, err = getSimpleText(a.reader, "Crop (empty to auto-detect)", a.out)
		if err != nil {
			return err
		}
	}

	res, err := a.diagnosis.Submit(ctx, media.Ref(args[0]), models.DetectRequest{Crop: strings.ToLower(crop)}, a.progress())
	a.printf("\n")
	if err != nil {
		if msg, ok := services.IsImageQualityError(err); ok {
			a.printf("%s: %s\n", a.resolver.T("image_quality_error"), msg)
			return nil
		}
		return err
	}

	a.renderResult(res)
	return nil
}

func (a *App) progress() media.PercentFunc {
	label := a.resolver.T("uploading")
	return func(p int) {
		a.printf("\r%s %3d%%", label, p)
	}
}

func (a *App) renderResult(r models.DiagnosisResult) {
	labels := i18n.Table(r.UITranslations)
	t := func(key string) string { return labels.Lookup(key, a.resolver.T(key)) }

	p := r.Prediction
	if p.IsHealthy || strings.Contains(strings.ToLower(p.Disease), "healthy") {
		a.printf("%s\n", t("healthy_crop"))
	} else {
		a.printf("%s: %s\n", t("potential_disease"), p.Disease)
	}
	if p.Crop != "" {
		a.printf("Crop: %s\n", p.Crop)
	}
	a.printf("%s: %.1f%%\n", t("confidence_score"), p.Confidence)
	if p.Stage != "" {
		a.printf("%s: %.0f%% (%s)\n", t("severity"), p.SeverityPercent, t("stage_"+strings.ToLower(p.Stage)))
	}
	if r.DiagnosisID != nil {
		a.printf("%s: %d\n", t("diagnosis_id"), *r.DiagnosisID)
	}
	if r.QualityWarning != "" {
		a.printf("! %s\n", r.QualityWarning)
	}

	if len(r.PesticideRecommendations) > 0 {
		a.printf("%s:\n", t("recommended_pesticides"))
		for _, pe := range r.PesticideRecommendations {
			kind := t("chemical")
			if pe.IsOrganic {
				kind = t("organic")
			}
			a.printf("  - %s (%s)", pe.Name, kind)
			if pe.Dosage != "" {
				a.printf(", %s: %s", t("dosage"), pe.Dosage)
			}
			if pe.Frequency != "" {
				a.printf(", %s: %s", t("frequency"), pe.Frequency)
			}
			if pe.CostPerUnit > 0 {
				a.printf(", %s: %.2f", t("est_price"), pe.CostPerUnit)
			}
			a.printf("\n")
		}
	}
	a.printRaw(t("disease_info"), r.DiseaseInfo)
	a.printRaw(t("weather_advice"), r.WeatherAdvice)
}

// printRaw prints a free-form JSON section indented under its title.
func (a *App) printRaw(title string, raw json.RawMessage) {
	if len(raw) == 0 || string(raw) == "null" {
		return
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		a.printf("%s: %s\n", title, s)
		return
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "  ", "  "); err != nil {
		return
	}
	a.printf("%s:\n  %s\n", title, buf.String())
}

// History lists past diagnoses: the server's for signed-in users, this
// session's for guests.
//
//	history [page]
func (a *App) History(ctx context.Context, args []string) error {
	page := 1
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 1 {
			return fmt.Errorf("invalid page %q", args[0])
		}
		page = n
	}

	entries, err := a.diagnosis.History(ctx, page, historyPageSize)
	if err != nil {
		return err
	}

	a.printf("%s\n", a.resolver.T("diagnosis_history_title"))
	if len(entries) == 0 {
		a.printf("%s\n%s\n", a.resolver.T("no_diagnoses_found"), a.resolver.T("history_empty_message"))
		return nil
	}
	for _, e := range entries {
		a.printf("%-36s  %-10s %-28s %5.1f%%  %s\n", e.ID, e.Crop, e.Disease, e.Confidence, e.CreatedAt)
	}
	return nil
}

// Show prints one diagnosis in full.
//
//	show <id>
func (a *App) Show(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("usage: show <id>")
	}
	id := args[0]

	if !a.isLoggedIn() {
		e, err := a.diagnosis.LocalEntry(ctx, id)
		if err != nil {
			return err
		}
		var res models.DiagnosisResult
		if err := json.Unmarshal(e.FullData, &res); err != nil {
			return fmt.Errorf("stored diagnosis unreadable: %w", err)
		}
		a.renderResult(res)
		return nil
	}

	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid id %q", id)
	}
	d, err := a.diagnosis.Detail(ctx, n)
	if err != nil {
		return err
	}

	a.renderResult(models.DiagnosisResult{
		DiagnosisID: &d.Diagnosis.ID,
		Prediction: models.Prediction{
			Crop:            d.Diagnosis.Crop,
			Disease:         d.Diagnosis.Disease,
			Confidence:      d.Diagnosis.Confidence,
			SeverityPercent: d.Diagnosis.SeverityPercent,
			Stage:           d.Diagnosis.Stage,
		},
		PesticideRecommendations: d.Pesticides,
	})
	if c := d.Cost; c != nil {
		a.printf("%s:\n  %s: %.2f\n  %s: %.2f\n  %s: %.2f\n", a.resolver.T("cost_estimation"),
			a.resolver.T("land_area"), c.LandArea,
			a.resolver.T("treatment_cost"), c.TreatmentCost,
			a.resolver.T("prevention_cost"), c.PreventionCost)
	}
	return nil
}
