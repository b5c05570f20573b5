package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/okian/hydroskill/internal/domain/analytical"
	"github.com/okian/hydroskill/internal/domain/skill"
	"github.com/smartystreets/goconvey/convey"
)

const modelsCSV = `Date,Model 1,Model 2
24/03/2013 00:00,10,11
25/03/2013 00:00,20,22
26/03/2013 00:00,30,33
27/03/2013 00:00,40,44
`

const observationsCSV = `Date,Turbidity
25/03/2013 00:00,
26/03/2013 00:00,31
27/03/2013 00:00,39
28/03/2013 00:00,50
29/03/2013 00:00,60
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func execute(args ...string) (string, error) {
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestScoreCommand(t *testing.T) {
	convey.Convey("Given model outputs and observations on disk", t, func() {
		dir := t.TempDir()
		models := writeFile(t, dir, "models.csv", modelsCSV)
		obs := writeFile(t, dir, "obs.csv", observationsCSV)
		merged := filepath.Join(dir, "ModelDataDaily.csv")
		scores := filepath.Join(dir, "SkillScores.csv")

		convey.Convey("When scoring with the leading gap skipped", func() {
			out, err := execute("score",
				"--models", models, "--observations", obs,
				"--skip-leading", "1",
				"--merged", merged, "--scores", scores)

			convey.Convey("Then the score table is printed", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(out, convey.ShouldContainSubstring, "Skill Score")
				convey.So(out, convey.ShouldContainSubstring, "Model 2")
				convey.So(out, convey.ShouldContainSubstring, "0.9375")
			})

			convey.Convey("And the merged table keeps the full aligned record", func() {
				b, err := os.ReadFile(merged)
				convey.So(err, convey.ShouldBeNil)
				convey.So(string(b), convey.ShouldEqual, strings.Join([]string{
					"Date,Observed,Model 1,Model 2",
					"[dd-mm-yyyy],[NTU],[NTU],[NTU]",
					"25-03-2013,,20,22",
					"26-03-2013,31,30,33",
					"27-03-2013,39,40,44",
				}, "\n")+"\n")
			})

			convey.Convey("And the skill score table has one row per statistic", func() {
				b, err := os.ReadFile(scores)
				convey.So(err, convey.ShouldBeNil)
				lines := strings.Split(strings.TrimSpace(string(b)), "\n")
				convey.So(len(lines), convey.ShouldEqual, 6)
				convey.So(lines[0], convey.ShouldEqual, "Skill Score,Model 1,Model 2")
				convey.So(lines[3], convey.ShouldEqual, "NSE,0.9375,0.09375")
				convey.So(lines[5], convey.ShouldStartWith, "PBIAS,0,")
			})
		})

		convey.Convey("When the leading gap is kept", func() {
			_, err := execute("score", "--models", models, "--observations", obs)

			convey.Convey("Then the missing observation is reported", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, "missing value")
			})
		})

		convey.Convey("When missing rows are dropped instead", func() {
			out, err := execute("score", "--models", models, "--observations", obs, "--drop-missing")

			convey.Convey("Then the same scores come out", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(out, convey.ShouldContainSubstring, "0.09375")
			})
		})

		convey.Convey("When the skip comes from the config file", func() {
			cfgPath := writeFile(t, dir, "hydroskill.yaml", "skip_leading: 1\n")
			out, err := execute("score", "--config", cfgPath, "--models", models, "--observations", obs)

			convey.Convey("Then it is applied", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(out, convey.ShouldContainSubstring, "0.9375")
			})
		})

		convey.Convey("When the observations are constant", func() {
			flat := writeFile(t, dir, "flat.csv", "Date,v\n25/03/2013 00:00,5\n26/03/2013 00:00,5\n")
			out, err := execute("score", "--models", models, "--observations", flat)

			convey.Convey("Then every model is reported as failed", func() {
				convey.So(err, convey.ShouldEqual, errNothingScored)
				convey.So(out, convey.ShouldContainSubstring, "Model 1: skill:")
				convey.So(out, convey.ShouldContainSubstring, "degenerate variance")
			})
		})

		convey.Convey("When a required flag is missing", func() {
			_, err := execute("score", "--models", models)

			convey.Convey("Then cobra rejects the invocation", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, "observations")
			})
		})

		convey.Convey("When an input file does not exist", func() {
			_, err := execute("score", "--models", filepath.Join(dir, "nope.csv"), "--observations", obs)

			convey.Convey("Then the path is named", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, "nope.csv")
			})
		})
	})
}

func TestAnalyticalCommand(t *testing.T) {
	convey.Convey("Given simulated heads that match the analytical solution", t, func() {
		dir := t.TempDir()
		xs, heads, err := analytical.DefaultParams().Profile(analytical.DefaultPoints)
		convey.So(err, convey.ShouldBeNil)
		var b strings.Builder
		b.WriteString("x,head\n")
		for i := range xs {
			fmt.Fprintf(&b, "%v,%v\n", xs[i], heads[i])
		}
		path := writeFile(t, dir, "heads.csv", b.String())

		convey.Convey("When comparing them", func() {
			out, err := execute("analytical", "--heads", path)

			convey.Convey("Then the fit is perfect", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(out, convey.ShouldStartWith, "rmse = 0 nse = 1 pbias = 0 pcc = ")
			})
		})

		convey.Convey("When the recharge differs", func() {
			out, err := execute("analytical", "--heads", path, "--recharge", "0.004")

			convey.Convey("Then the analytical heads overshoot", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(out, convey.ShouldStartWith, "rmse = ")
				convey.So(out, convey.ShouldNotStartWith, "rmse = 0 ")
				convey.So(out, convey.ShouldContainSubstring, "pbias = -")
			})
		})

		convey.Convey("When the point count does not match", func() {
			_, err := execute("analytical", "--heads", path, "--points", "10")

			convey.Convey("Then the shape mismatch is reported", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, string(skill.NSE))
				convey.So(err.Error(), convey.ShouldContainSubstring, "shape mismatch")
			})
		})

		convey.Convey("When the aquifer is not physical", func() {
			_, err := execute("analytical", "--heads", path, "--conductivity", "0")

			convey.Convey("Then the parameters are rejected", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, "conductivity")
			})
		})
	})
}

func TestVersionCommand(t *testing.T) {
	convey.Convey("Given the version command", t, func() {
		out, err := execute("version")

		convey.Convey("Then the build version is printed", func() {
			convey.So(err, convey.ShouldBeNil)
			convey.So(out, convey.ShouldEqual, "hydroskill dev\n")
		})
	})
}
