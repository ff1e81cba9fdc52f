package sandbox

import (
	"errors"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var registerTagNameOnce sync.Once

// useJSONFieldNames はバリデーションエラーのフィールド名をJSON名にする。
func useJSONFieldNames() {
	registerTagNameOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
	})
}

// respond は成功レスポンスをエンベロープ形式で返す。
func respond(c *gin.Context, status int, message string, data any) {
	c.JSON(status, gin.H{
		"success": true,
		"message": message,
		"data":    data,
	})
}

// fail はエラーレスポンスをエンベロープ形式で返す。
func fail(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"success": false,
		"message": message,
	})
}

// failValidation はフィールド別のエラーを伴う422を返す。
func failValidation(c *gin.Context, fields map[string][]string) {
	c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{
		"success": false,
		"message": "入力内容に誤りがあります",
		"errors":  fields,
	})
}

// bindJSON はリクエストボディをvにバインドする。
// 失敗した場合はエラーレスポンスを返してfalseを返す。
func bindJSON(c *gin.Context, v any) bool {
	err := c.ShouldBindJSON(v)
	if err == nil {
		return true
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		fail(c, http.StatusBadRequest, "リクエストボディが不正です")
		return false
	}
	fields := make(map[string][]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = append(fields[fe.Field()], fieldMessage(fe))
	}
	failValidation(c, fields)
	return false
}

// fieldMessage はフィールドエラーの表示用メッセージを返す。
func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + "は必須です"
	case "email":
		return fe.Field() + "はメールアドレスの形式で入力してください"
	case "min":
		return fe.Field() + "は" + fe.Param() + "文字以上で入力してください"
	case "eqfield":
		return "パスワードが一致しません"
	case "oneof":
		return fe.Field() + "は次のいずれかを指定してください: " + fe.Param()
	default:
		return fe.Field() + "が不正です"
	}
}
