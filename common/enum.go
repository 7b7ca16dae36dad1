// Copyright © 2017 Microsoft <wastore@microsoft.com>
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

package common

import (
	"fmt"
	"reflect"
	"strings"
)

// EnumHelper backs reflection-based String/Parse for enum types such as
// LogLevel: a symbol is any zero-argument method on the enum type that
// returns the enum type itself, e.g. `func (LogLevel) Info() LogLevel`.
// The model package's Origin, Classification, Action and CreateTimeStatus
// use the same method-per-symbol shape but print their raw string values
// and do not go through EnumHelper.
type EnumHelper struct{}
type EnumSymbolInfo func(enumSymbolName string, enumSymbolValue interface{}) (stop bool)

func (EnumHelper) isValidEnumSymbolMethod(enumType reflect.Type, m reflect.Method) bool {
	return m.Type.NumIn() == 1 && m.Type.NumOut() == 1 && m.Type.Out(0) == enumType
}

func (EnumHelper) findMethod(enumType reflect.Type, methodName string, caseInsensitive bool) (reflect.Method, bool) {
	if !caseInsensitive {
		return enumType.MethodByName(methodName)
	}
	methodName = strings.ToLower(methodName)
	for m := 0; m < enumType.NumMethod(); m++ {
		method := enumType.Method(m)
		if strings.ToLower(method.Name) == methodName {
			return method, true
		}
	}
	return reflect.Method{}, false
}

func (EnumHelper) EnumSymbols(enumType reflect.Type, esi EnumSymbolInfo) {
	args := [1]reflect.Value{reflect.Zero(enumType)}
	for m := 0; m < enumType.NumMethod(); m++ {
		method := enumType.Method(m)
		if !(EnumHelper{}).isValidEnumSymbolMethod(enumType, method) {
			continue
		}
		value := method.Func.Call(args[:])[0].Convert(enumType).Interface()
		if esi(method.Name, value) {
			return
		}
	}
}

func (EnumHelper) String(enumValue interface{}, enumType reflect.Type) string {
	symbolResult := ""
	EnumHelper{}.EnumSymbols(enumType, func(symbol string, value interface{}) bool {
		if value == enumValue {
			symbolResult = symbol
			return true
		}
		return false
	})
	return symbolResult
}

func (EnumHelper) StringOrValue(value interface{}, enumType reflect.Type) string {
	if symbolName := (EnumHelper{}).String(value, enumType); symbolName != "" {
		return symbolName
	}
	return fmt.Sprintf("%v", value)
}

func (EnumHelper) Parse(enumTypePtr reflect.Type, s string, caseInsensitive bool) (interface{}, error) {
	enumType := enumTypePtr.Elem()
	if method, found := (EnumHelper{}).findMethod(enumType, s, caseInsensitive); found {
		args := [1]reflect.Value{reflect.Zero(enumType)}
		return method.Func.Call(args[:])[0].Convert(enumType).Interface(), nil
	}
	return nil, fmt.Errorf("couldn't parse %q into an instance of %q", s, enumType.Name())
}
