package detector

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"math/rand"
	"os"
	"strings"

	"github.com/mongodb/grip"
)

const defaultSeed = 12345678

func LoadFixture(testName string, fixture interface{}) error {
	parts := strings.Split(testName, "/")
	testName = parts[len(parts)-1]

	fixtureName := fmt.Sprintf("testdata/%s.json", testName)
	jsonFile, err := os.Open(fixtureName)
	if err != nil {
		return err
	}
	defer func() { grip.Alert(jsonFile.Close()) }()

	byteValue, err := ioutil.ReadAll(jsonFile)
	if err != nil {
		return err
	}

	return json.Unmarshal(byteValue, fixture)
}

func constantSeries(n int, value float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = value
	}
	return out
}

func stepSeries(levels ...float64) func(int) []float64 {
	return func(each int) []float64 {
		out := make([]float64, 0, each*len(levels))
		for _, level := range levels {
			out = append(out, constantSeries(each, level)...)
		}
		return out
	}
}

func randomSeries(n int, seed int64) []float64 {
	rng := rand.New(rand.NewSource(seed))
	out := make([]float64, n)
	level := 0.0
	for i := range out {
		if rng.Float64() < 0.05 {
			level = rng.Float64() * 10
		}
		out[i] = level + rng.NormFloat64()
	}
	return out
}
