// Package model はドメインモデルを定義する。
package model

import "time"

// DateLayout は食事日付の入出力フォーマット（時刻なし）。
const DateLayout = "2006-01-02"

// Meal は食事区分を表す。
type Meal string

const (
	// MealBreakfast は朝食。
	MealBreakfast Meal = "Breakfast"
	// MealLunch は昼食。
	MealLunch Meal = "Lunch"
	// MealDinner は夕食。
	MealDinner Meal = "Dinner"
	// MealSnack は間食。
	MealSnack Meal = "Snack"
)

// Meals は選択可能な食事区分を表示順で返す。
func Meals() []Meal {
	return []Meal{MealBreakfast, MealLunch, MealDinner, MealSnack}
}

// Valid は食事区分が定義済みの値かどうかを判定する。
func (m Meal) Valid() bool {
	switch m {
	case MealBreakfast, MealLunch, MealDinner, MealSnack:
		return true
	default:
		return false
	}
}

// FoodEntry はユーザーが記録した1件の食事を表す。food_tbの1行に対応する。
type FoodEntry struct {
	ID        string
	UserID    string
	Foodname  string
	Meal      Meal
	FoodDate  time.Time // 日付のみ有効（UTCの0時）
	ImageURL  *string   // 食事画像の公開URL。未設定の場合はnil
	CreatedAt time.Time // 一覧の並び順にのみ使用する
}

// HasImage は画像URLが設定されているかどうかを返す。
func (e *FoodEntry) HasImage() bool {
	return e.ImageURL != nil && *e.ImageURL != ""
}
