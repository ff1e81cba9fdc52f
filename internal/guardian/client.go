package guardian

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/nao1215/guardian/pkg/httpclient"
	"github.com/nao1215/guardian/pkg/querycache"
)

// Client はガーディアンAPIのクライアント。
type Client struct {
	// http は認証付きHTTPクライアント。
	http *httpclient.Client
	// cache は参照系レスポンスのキャッシュ。nilの場合はキャッシュしない。
	cache *querycache.Cache
	// validate は送信前のリクエスト検証に使用する。
	validate *validator.Validate
}

// New は新しいガーディアンAPIクライアントを生成する。
func New(hc *httpclient.Client, cache *querycache.Cache) *Client {
	v := validator.New()
	// フィールドエラーのキーをJSON名に揃える
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return &Client{
		http:     hc,
		cache:    cache,
		validate: v,
	}
}

// InvalidateAll はキャッシュを全て破棄する。セッション終了時に呼ぶ。
func (c *Client) InvalidateAll() {
	if c.cache != nil {
		c.cache.Clear()
	}
}

// invalidate はprefixes配下のキャッシュを破棄する。
func (c *Client) invalidate(prefixes ...string) {
	if c.cache == nil {
		return
	}
	for _, p := range prefixes {
		c.cache.InvalidatePrefix(p)
	}
}

// call はリクエストを送信し、エンベロープのdataを返す。
func call[T any](ctx context.Context, c *Client, req *httpclient.Request) (T, error) {
	var zero T
	resp, err := c.http.Send(ctx, req)
	if err != nil {
		return zero, err
	}
	env, err := httpclient.Decode[T](resp)
	if err != nil {
		return zero, err
	}
	return env.Data, nil
}

// check はリクエストボディを検証し、違反があればバリデーションエラーを返す。
func (c *Client) check(body any) error {
	err := c.validate.Struct(body)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("リクエストの検証に失敗: %w", err)
	}
	fields := make(map[string][]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = append(fields[fe.Field()], fieldMessage(fe))
	}
	return httpclient.NewValidationError("入力内容に誤りがあります", fields)
}

// fieldMessage はフィールドエラーの表示用メッセージを返す。
func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%sは必須です", fe.Field())
	case "email":
		return fmt.Sprintf("%sはメールアドレスの形式で入力してください", fe.Field())
	case "eqfield":
		return fmt.Sprintf("%sが一致しません", fe.Field())
	case "oneof":
		return fmt.Sprintf("%sは次のいずれかを指定してください: %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%sが不正です（%s=%s）", fe.Field(), fe.Tag(), fe.Param())
	}
}
