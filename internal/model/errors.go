// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, food, storage, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeValidation          = "VALIDATION_FAILED"
	ErrCodeInvalidMeal         = "INVALID_MEAL"
	ErrCodeInvalidDate         = "INVALID_DATE"
	ErrCodeInvalidImage        = "INVALID_IMAGE"
	ErrCodeImageTooLarge       = "IMAGE_TOO_LARGE"
	ErrCodePasswordMismatch    = "PASSWORD_MISMATCH"
	ErrCodeInvalidCredentials  = "INVALID_CREDENTIALS"
	ErrCodeEmailAlreadyExists  = "EMAIL_ALREADY_EXISTS"
	ErrCodeFoodNotFound        = "FOOD_NOT_FOUND"
	ErrCodeUserNotFound        = "USER_NOT_FOUND"
	ErrCodeStorageUploadFailed = "STORAGE_UPLOAD_FAILED"
	ErrCodeUnauthorized        = "UNAUTHORIZED"
	ErrCodeRateLimitExceeded   = "RATE_LIMIT_EXCEEDED"
	ErrCodeCSRFInvalid         = "CSRF_INVALID"
	ErrCodeInternal            = "INTERNAL_ERROR"
)

// NewValidationError は入力値の検証エラーを生成する。
func NewValidationError(field, reason string) *APIError {
	return &APIError{
		Code:     ErrCodeValidation,
		Message:  fmt.Sprintf("%s: %s", field, reason),
		Category: "validation",
		Action:   "入力内容を確認してください。",
	}
}

// NewInvalidMealError は食事区分が不正な場合のエラーを生成する。
func NewInvalidMealError(meal string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidMeal,
		Message:  fmt.Sprintf("無効な食事区分です: %s", meal),
		Category: "validation",
		Action:   "食事区分には Breakfast、Lunch、Dinner、Snack のいずれかを指定してください。",
	}
}

// NewInvalidDateError は日付の形式が不正な場合のエラーを生成する。
func NewInvalidDateError(value string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidDate,
		Message:  fmt.Sprintf("無効な日付です: %s", value),
		Category: "validation",
		Action:   "日付は YYYY-MM-DD 形式で入力してください。",
	}
}

// NewInvalidImageError は画像以外のファイルが送信された場合のエラーを生成する。
func NewInvalidImageError(contentType string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidImage,
		Message:  fmt.Sprintf("画像ファイルではありません: %s", contentType),
		Category: "validation",
		Action:   "JPEG、PNGなどの画像ファイルを選択してください。",
	}
}

// NewImageTooLargeError は画像サイズが上限を超えた場合のエラーを生成する。
func NewImageTooLargeError(limit int64) *APIError {
	return &APIError{
		Code:     ErrCodeImageTooLarge,
		Message:  fmt.Sprintf("画像サイズが上限（%dバイト）を超えています。", limit),
		Category: "validation",
		Action:   "サイズの小さい画像を選択してください。",
	}
}

// NewPasswordMismatchError はパスワード確認が一致しない場合のエラーを生成する。
func NewPasswordMismatchError() *APIError {
	return &APIError{
		Code:     ErrCodePasswordMismatch,
		Message:  "パスワードと確認用パスワードが一致しません。",
		Category: "validation",
		Action:   "同じパスワードを2回入力してください。",
	}
}

// NewInvalidCredentialsError はログイン情報が正しくない場合のエラーを生成する。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "メールアドレスまたはパスワードが正しくありません。",
		Category: "auth",
		Action:   "入力内容を確認して再度ログインしてください。",
	}
}

// NewEmailAlreadyExistsError は登録済みのメールアドレスの場合のエラーを生成する。
func NewEmailAlreadyExistsError() *APIError {
	return &APIError{
		Code:     ErrCodeEmailAlreadyExists,
		Message:  "このメールアドレスは既に登録されています。",
		Category: "auth",
		Action:   "別のメールアドレスを使用するか、ログインしてください。",
	}
}

// NewFoodNotFoundError は食事記録が見つからない場合のエラーを生成する。
func NewFoodNotFoundError(foodID string) *APIError {
	return &APIError{
		Code:     ErrCodeFoodNotFound,
		Message:  fmt.Sprintf("指定された食事記録が見つかりません: %s", foodID),
		Category: "food",
		Action:   "一覧画面から再度選択してください。",
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  "ユーザーが見つかりません。",
		Category: "auth",
		Action:   "ログインし直してください。",
	}
}

// NewStorageUploadFailedError は画像のアップロードに失敗した場合のエラーを生成する。
func NewStorageUploadFailedError() *APIError {
	return &APIError{
		Code:     ErrCodeStorageUploadFailed,
		Message:  "画像のアップロードに失敗しました。",
		Category: "storage",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewUnauthorizedError は未認証エラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "認証が必要です。",
		Category: "auth",
		Action:   "ログインしてください。",
	}
}

// NewRateLimitError はレート制限超過エラーを生成する。
func NewRateLimitError() *APIError {
	return &APIError{
		Code:     ErrCodeRateLimitExceeded,
		Message:  "リクエストが多すぎます。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewCSRFError はCSRFトークン検証エラーを生成する。
func NewCSRFError() *APIError {
	return &APIError{
		Code:     ErrCodeCSRFInvalid,
		Message:  "CSRFトークンの検証に失敗しました。",
		Category: "auth",
		Action:   "ページを再読み込みしてから再度お試しください。",
	}
}

// NewInternalError は内部エラーを生成する。詳細はログのみに記録する。
func NewInternalError() *APIError {
	return &APIError{
		Code:     ErrCodeInternal,
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}
