package httpapi

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"log"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/labor-market-dashboard/internal/common"
	"github.com/i474232898/labor-market-dashboard/internal/labor"
	"github.com/i474232898/labor-market-dashboard/internal/presenter"
)

var validate = validator.New()

const defaultMonths = 60

// defaultSelection is what the dashboard shows before the user picks series.
var defaultSelection = []string{labor.SeriesNonfarmEmployment, labor.SeriesUnemploymentRate}

// DatasetReader supplies the dataset served by the dashboard.
type DatasetReader interface {
	Load(ctx context.Context) (labor.Dataset, error)
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, data DatasetReader, cat *presenter.Catalog) {
	h := &handler{data: data, cat: cat}

	app.Get("/", h.dashboard)

	v1 := app.Group("/api/v1")
	v1.Get("/series", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"series": cat.Series()})
	})
	v1.Get("/latest", h.latest)
	v1.Get("/observations", h.observations)
	v1.Get("/charts/:unit.svg", h.chart(presenter.SVG))
	v1.Get("/charts/:unit.png", h.chart(presenter.PNG))
}

type handler struct {
	data DatasetReader
	cat  *presenter.Catalog
}

// load returns the current dataset; a dataset that was never stored reads as empty.
func (h *handler) load(c *fiber.Ctx) (labor.Dataset, error) {
	ds, err := h.data.Load(c.UserContext())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return labor.Dataset{}, nil
		}
		log.Printf("ERROR: failed to load dataset: %v", err)
		return nil, fiber.NewError(fiber.StatusInternalServerError, "failed to load dataset")
	}
	return ds, nil
}

func (h *handler) latest(c *fiber.Ctx) error {
	ds, err := h.load(c)
	if err != nil {
		return err
	}
	if len(ds) == 0 {
		return fiber.NewError(fiber.StatusNotFound, "no data available; run bootstrap first")
	}

	return c.JSON(fiber.Map{
		"latestDate": ds.LastDate(),
		"indicators": presenter.Indicators(ds, h.cat),
	})
}

type groupTable struct {
	Unit  presenter.Unit  `json:"unit"`
	Table presenter.Table `json:"table"`
}

func (h *handler) observations(c *fiber.Ctx) error {
	var q viewQuery
	if err := q.bind(c, h.cat); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	ds, err := h.load(c)
	if err != nil {
		return err
	}

	view := presenter.WindowedView(ds, q.Series, q.Months)
	groups := []groupTable{}
	for _, g := range presenter.GroupByUnit(view, q.Series, h.cat) {
		groups = append(groups, groupTable{Unit: g.Unit, Table: presenter.Pivot(g.Rows, h.cat)})
	}

	resp := fiber.Map{
		"series": q.Series,
		"months": q.Months,
		"groups": groups,
	}
	if cutoff := presenter.Cutoff(ds, q.Series, q.Months); !cutoff.IsZero() {
		resp["cutoff"] = cutoff
	}
	return c.JSON(resp)
}

func (h *handler) chart(format presenter.ChartFormat) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var q viewQuery
		if err := q.bind(c, h.cat); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		unit := presenter.Unit(c.Params("unit"))

		ds, err := h.load(c)
		if err != nil {
			return err
		}

		view := presenter.WindowedView(ds, q.Series, q.Months)
		for _, g := range presenter.GroupByUnit(view, q.Series, h.cat) {
			if g.Unit != unit {
				continue
			}
			var buf bytes.Buffer
			if err := presenter.RenderChart(&buf, g, h.cat, format); err != nil {
				log.Printf("ERROR: chart %s: %v", unit, err)
				return fiber.NewError(fiber.StatusInternalServerError, "failed to render chart")
			}
			c.Set(fiber.HeaderContentType, format.ContentType())
			c.Set(fiber.HeaderCacheControl, "no-cache")
			return c.Send(buf.Bytes())
		}
		return fiber.NewError(fiber.StatusNotFound, "no observations for unit "+string(unit))
	}
}

// viewQuery holds the series selection and window shared by the view endpoints.
type viewQuery struct {
	Series []string `validate:"required,min=1,dive,required"`
	Months int      `validate:"min=1,max=600"`
}

func (q *viewQuery) bind(c *fiber.Ctx, cat *presenter.Catalog) error {
	q.Series = selectedSeries(c)
	if len(q.Series) == 0 {
		q.Series = append([]string(nil), defaultSelection...)
	}

	q.Months = defaultMonths
	if raw := c.Query("months"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return errors.New("months must be an integer")
		}
		q.Months = n
	}

	if err := validate.Struct(q); err != nil {
		return err
	}
	for _, id := range q.Series {
		if _, ok := cat.Lookup(id); !ok {
			return errors.New("unknown series " + id)
		}
	}
	return nil
}

// selectedSeries accepts both repeated (?series=a&series=b) and comma-separated values.
func selectedSeries(c *fiber.Ctx) []string {
	var ids []string
	seen := make(map[string]bool)
	for _, raw := range c.Context().QueryArgs().PeekMulti("series") {
		for _, id := range common.SplitList(string(raw)) {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	return ids
}
