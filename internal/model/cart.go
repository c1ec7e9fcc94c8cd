package model

import "encoding/json"

// CartItem はカート内の1明細を表す。
// サーバーが真実の源であり、削除に必要なIDを除けばクライアント側では不透明に扱う。
// サーバーが返す追加フィールドはRawに保持し、そのままUIへ受け渡す。
type CartItem struct {
	ID        int64           `json:"id"`
	KeyID     int64           `json:"key_id,omitempty"`
	GameTitle string          `json:"game_title,omitempty"`
	Price     float64         `json:"price,omitempty"`
	Raw       json.RawMessage `json:"-"`
}

// UnmarshalJSON は既知フィールドを取り出しつつ、元のペイロードをRawに保持する。
func (i *CartItem) UnmarshalJSON(data []byte) error {
	type alias CartItem
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*i = CartItem(a)
	i.Raw = append(i.Raw[:0], data...)
	return nil
}

// MarshalJSON はRawが保持されていればそれを返す。
func (i CartItem) MarshalJSON() ([]byte, error) {
	if len(i.Raw) > 0 {
		return i.Raw, nil
	}
	type alias CartItem
	return json.Marshal(alias(i))
}
