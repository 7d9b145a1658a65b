// Package security はアプリケーションのセキュリティ機能を提供する。
//
// TextSanitizer はユーザーが入力した食事名や氏名からHTMLマークアップを除去する。
// bluemondayのStrictPolicyを使用し、全てのタグと属性を取り除いたプレーンテキストを返す。
package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// TextSanitizer はプレーンテキスト入力のサニタイズ機能のインターフェース。
type TextSanitizer interface {
	// Sanitize は入力からタグを除去し、前後の空白を取り除き、
	// 連続する空白を1つにまとめた文字列を返す。
	// 同一入力に対して常に同一出力を返す（冪等）。
	Sanitize(input string) string
}

// textSanitizer はTextSanitizerの実装。
// bluemondayのポリシーはスレッドセーフなため、複数のリクエストから共有できる。
type textSanitizer struct {
	policy *bluemonday.Policy
}

// NewTextSanitizer はStrictPolicyを保持するTextSanitizerを生成する。
func NewTextSanitizer() *textSanitizer {
	return &textSanitizer{policy: bluemonday.StrictPolicy()}
}

// Sanitize はタグを除去したプレーンテキストを返す。
// bluemondayが出力するHTMLエンティティ（&amp;など）は元の文字に戻す。
func (s *textSanitizer) Sanitize(input string) string {
	stripped := html.UnescapeString(s.policy.Sanitize(input))
	return strings.Join(strings.Fields(stripped), " ")
}

// compile-time interface check
var _ TextSanitizer = (*textSanitizer)(nil)
