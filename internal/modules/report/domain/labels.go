package domain

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	apperrors "everest/internal/platform/errors"
)

type Locale string

const (
	LocaleEN Locale = "en"
	LocaleRU Locale = "ru"
)

func ParseLocale(raw string) (Locale, error) {
	switch Locale(strings.ToLower(strings.TrimSpace(raw))) {
	case "", LocaleEN:
		return LocaleEN, nil
	case LocaleRU:
		return LocaleRU, nil
	default:
		return "", fmt.Errorf("%w: unsupported locale %q", apperrors.ErrInvalidInput, raw)
	}
}

func (l Locale) Tag() language.Tag {
	if l == LocaleRU {
		return language.Russian
	}
	return language.English
}

// Printer formats numbers with the locale's grouping and decimal marks.
func (l Locale) Printer() *message.Printer {
	return message.NewPrinter(l.Tag())
}

// DateLayout is the layout for report timestamps.
func (l Locale) DateLayout() string {
	if l == LocaleRU {
		return "02.01.2006 15:04:05"
	}
	return "2006-01-02 15:04:05"
}

type Labels struct {
	Title          string
	Complete       string
	InProgress     string
	Report         string
	Date           string
	StartTime      string
	FinishTime     string
	Athlete        string
	Track          string
	Missing        string
	General        string
	Summary        string
	MetricValue    string
	TotalTime      string
	MovingTime     string
	LapsCompleted  string
	GoalLaps       string
	TotalDistance  string
	TotalAscent    string
	Gradient       string
	AscentSpeed    string
	LapTimes       string
	AvgLap         string
	FastestLap     string
	SlowestLap     string
	StdDeviation   string
	Pauses         string
	TotalPauses    string
	TotalPauseTime string
	MaxPause       string
	AvgPausePerLap string
	Laps           string
	LapHeader      []string
	LapFootnotes   []string
	Km             string
	M              string
	MPerKm         string
	MPerH          string
}

var labels = map[Locale]Labels{
	LocaleEN: {
		Title:          "EVERESTING SESSION SUMMARY",
		Complete:       "Session Complete!",
		InProgress:     "Session in progress",
		Report:         "Everesting Session Report",
		Date:           "Date:",
		StartTime:      "Start Time:",
		FinishTime:     "Finish Time:",
		Athlete:        "Athlete:",
		Track:          "Track:",
		Missing:        "N/A",
		General:        "GENERAL",
		Summary:        "SUMMARY",
		MetricValue:    "Metric,Value",
		TotalTime:      "Total Time:",
		MovingTime:     "Moving Time:",
		LapsCompleted:  "Laps Completed:",
		GoalLaps:       "Goal (laps):",
		TotalDistance:  "Total Distance:",
		TotalAscent:    "Total Ascent:",
		Gradient:       "Distance Gradient:",
		AscentSpeed:    "Ascent Speed:",
		LapTimes:       "LAP TIMES",
		AvgLap:         "Average Lap Time:",
		FastestLap:     "Fastest Lap:",
		SlowestLap:     "Slowest Lap:",
		StdDeviation:   "Std. Deviation:",
		Pauses:         "PAUSES",
		TotalPauses:    "Total Pauses:",
		TotalPauseTime: "Total Pause Time:",
		MaxPause:       "Max Pause:",
		AvgPausePerLap: "Avg Pause per Lap:",
		Laps:           "Laps",
		LapHeader:      []string{"Lap", "Total Time", "Lap Time", "Delta*", "Pause Duration", "Pure Lap Time**", "Ascent Speed (m/h)"},
		LapFootnotes: []string{
			"* Delta is the difference between the lap time and the running average.",
			"** Pure lap time is the lap time minus pauses taken on that lap.",
		},
		Km:     "km",
		M:      "m",
		MPerKm: "m/km",
		MPerH:  "m/h",
	},
	LocaleRU: {
		Title:          "ОТЧЕТ ЧЕЛЛЕНДЖА ЭВЕРЕСТИНГ",
		Complete:       "Сессия завершена!",
		InProgress:     "Сессия не завершена",
		Report:         "Отчет челленджа эверестинг",
		Date:           "Дата отчёта:",
		StartTime:      "Время старта:",
		FinishTime:     "Время финиша:",
		Athlete:        "Имя:",
		Track:          "Трасса:",
		Missing:        "---",
		General:        "ОБЩИЕ ИТОГИ",
		Summary:        "Общие итоги",
		MetricValue:    "Параметр,Значение",
		TotalTime:      "Общее время:",
		MovingTime:     "Время в движении:",
		LapsCompleted:  "Кругов пройдено:",
		GoalLaps:       "Цель по кругам:",
		TotalDistance:  "Пройденная дистанция:",
		TotalAscent:    "Пройденный подъем:",
		Gradient:       "Градиент дистанции:",
		AscentSpeed:    "Скорость подъёма:",
		LapTimes:       "ВРЕМЯ КРУГОВ",
		AvgLap:         "Среднее время круга:",
		FastestLap:     "Самый быстрый круг:",
		SlowestLap:     "Самый медленный круг:",
		StdDeviation:   "Стандартное отклонение:",
		Pauses:         "ПАУЗЫ",
		TotalPauses:    "Всего пауз:",
		TotalPauseTime: "Общее время пауз:",
		MaxPause:       "Самая длинная пауза:",
		AvgPausePerLap: "Время паузы в расчете на один круг:",
		Laps:           "Круги",
		LapHeader:      []string{"Номер круга", "Общее время", "Время круга", "Дельта*", "Длительность паузы", "Чистое время круга**", "Скорость подъёма (м/ч)"},
		LapFootnotes: []string{
			"* Дельта - разница между реальным и средним временем круга.",
			"** Чистое время круга - полное время круга за вычетом времени пауз, если таковые на этом круге были.",
		},
		Km:     "км",
		M:      "м",
		MPerKm: "м/км",
		MPerH:  "м/час",
	},
}

func LabelsFor(l Locale) Labels {
	if lb, ok := labels[l]; ok {
		return lb
	}
	return labels[LocaleEN]
}
