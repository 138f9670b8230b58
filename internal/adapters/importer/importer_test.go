package importer_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/admetrics/internal/adapters/importer"
	"github.com/okian/admetrics/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestReadCSV(t *testing.T) {
	Convey("Given a CSV history sheet", t, func() {
		path := writeTemp(t, "history.csv", `date,channel,spend,impressions,clicks,conversions,revenue,id
2024-03-01,google_ads,1200.50,100000,2500,50,29950,g-1
2024-03-01, linkedin ,800,20000,300,6,4194,

2024-03-02,google_ads,"1,100",90000,2200,45,26955,g-2
`)

		Convey("When it is read", func() {
			days, err := importer.ReadFile(path)
			So(err, ShouldBeNil)

			Convey("Then rows are parsed and blank lines skipped", func() {
				So(days, ShouldHaveLength, 3)
				So(days[0].ID, ShouldEqual, "g-1")
				So(days[0].Spend, ShouldEqual, 1200.50)
				So(days[0].Date.Equal(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)), ShouldBeTrue)
				So(days[1].Channel, ShouldEqual, "linkedin")
				So(days[2].Spend, ShouldEqual, 1100)
			})

			Convey("Then missing ids are derived deterministically", func() {
				So(days[1].ID, ShouldNotBeEmpty)
				So(days[1].ID, ShouldEqual, importer.DeriveID("linkedin", days[1].Date))
				again, _ := importer.ReadFile(path)
				So(again[1].ID, ShouldEqual, days[1].ID)
			})
		})
	})

	Convey("Given malformed sheets", t, func() {
		Convey("When a required column is missing", func() {
			path := writeTemp(t, "h.csv", "date,channel,spend\n2024-01-01,email,1\n")
			_, err := importer.ReadFile(path)
			So(errors.Is(err, importer.ErrMissingColumn), ShouldBeTrue)
		})

		Convey("When a number cannot be parsed", func() {
			path := writeTemp(t, "h.csv", "date,channel,spend,impressions,clicks,conversions,revenue\n2024-01-01,email,abc,1,1,1,1\n")
			_, err := importer.ReadFile(path)
			So(errors.Is(err, importer.ErrBadRow), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "line 2")
		})

		Convey("When the file has only a header", func() {
			path := writeTemp(t, "h.csv", "date,channel,spend,impressions,clicks,conversions,revenue\n")
			_, err := importer.ReadFile(path)
			So(err, ShouldEqual, importer.ErrEmptyFile)
		})

		Convey("When the extension is unknown", func() {
			_, err := importer.ReadFile("history.json")
			So(errors.Is(err, importer.ErrUnsupportedFormat), ShouldBeTrue)
		})
	})
}

func TestRoundTripXLSX(t *testing.T) {
	Convey("Given campaign days written to an XLSX workbook", t, func() {
		path := filepath.Join(t.TempDir(), "history.xlsx")
		in := []model.CampaignDay{
			{ID: "a", Channel: "facebook", Date: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), Spend: 950.25, Impressions: 80_000, Clicks: 1_600, Conversions: 20, Revenue: 11_980},
			{ID: "b", Channel: "indeed", Date: time.Date(2024, 2, 2, 0, 0, 0, 0, time.UTC), Spend: 400, Impressions: 15_000, Clicks: 450, Conversions: 12, Revenue: 7_188},
		}
		So(importer.WriteFile(path, in), ShouldBeNil)

		Convey("When it is read back", func() {
			out, err := importer.ReadFile(path)
			So(err, ShouldBeNil)

			Convey("Then every field survives", func() {
				So(out, ShouldHaveLength, 2)
				So(out[0].ID, ShouldEqual, "a")
				So(out[0].Spend, ShouldEqual, 950.25)
				So(out[1].Conversions, ShouldEqual, 12)
				So(out[1].Date.Equal(in[1].Date), ShouldBeTrue)
			})
		})
	})

	Convey("Given campaign days written to CSV", t, func() {
		path := filepath.Join(t.TempDir(), "history.csv")
		So(importer.WriteFile(path, []model.CampaignDay{
			{ID: "c", Channel: "email", Date: time.Date(2024, 2, 3, 0, 0, 0, 0, time.UTC), Spend: 10, Impressions: 100, Clicks: 5, Conversions: 1, Revenue: 599},
		}), ShouldBeNil)

		out, err := importer.ReadFile(path)
		So(err, ShouldBeNil)
		So(out[0].Revenue, ShouldEqual, 599)
	})
}
