package plugin

import (
	"reflect"
	"strconv"
)

// ParseParamsFromStruct 从结构体的tag解析参数定义
// 支持的tag: name, required, default, description
//
// 示例:
//
//	type Params struct {
//	    New  string `param:"name=new,required=false,default=,description=生成的构造函数名"`
//	    Ctor string `param:"name=ctor,required=false,default=true,description=是否生成构造函数"`
//	}
//
//	params := plugin.ParseParamsFromStruct(Params{})
func ParseParamsFromStruct(v any) []ParamDef {
	typ := reflect.TypeOf(v)
	if typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}
	if typ.Kind() != reflect.Struct {
		return nil
	}

	var params []ParamDef
	for i := 0; i < typ.NumField(); i++ {
		tag := typ.Field(i).Tag.Get("param")
		if tag == "" {
			continue
		}
		paramDef := parseParamTag(tag)
		if paramDef.Name != "" {
			params = append(params, paramDef)
		}
	}

	return params
}

// parseParamTag 解析 param tag 字符串
// 格式: name=xxx,required=true,default=xxx,description=xxx
func parseParamTag(tag string) ParamDef {
	var param ParamDef

	for key, value := range splitTag(tag) {
		switch key {
		case "name":
			param.Name = value
		case "required":
			param.Required = value == "true"
		case "default":
			param.Default = value
		case "description":
			param.Description = value
		}
	}

	return param
}

// splitTag 分割tag字符串为键值对
// 格式: key1=value1,key2=value2,... 值中可用 \ 转义逗号
func splitTag(tag string) map[string]string {
	result := make(map[string]string)

	var key, value string
	var inKey = true
	var escaped = false

	for i := 0; i < len(tag); i++ {
		ch := tag[i]

		if escaped {
			if inKey {
				key += string([]byte{ch})
			} else {
				value += string([]byte{ch})
			}
			escaped = false
			continue
		}

		switch {
		case ch == '\\':
			escaped = true
		case ch == '=' && inKey:
			inKey = false
		case ch == ',':
			if key != "" {
				result[key] = value
			}
			key, value = "", ""
			inKey = true
		default:
			if inKey {
				key += string([]byte{ch})
			} else {
				value += string([]byte{ch})
			}
		}
	}

	if key != "" {
		result[key] = value
	}

	return result
}

// ParseAnnotationParams 将注解的参数解析到目标结构体中
// annotation: 注解对象，包含参数键值对
// target: 目标结构体（必须是指针）
// paramDefs: 参数定义列表，用于应用默认值
//
// 示例:
//
//	var params FieldsParams
//	err := plugin.ParseAnnotationParams(annotation, &params, paramDefs)
func ParseAnnotationParams(annotation *Annotation, target any, paramDefs []ParamDef) error {
	val := reflect.ValueOf(target)
	if val.Kind() != reflect.Ptr || val.IsNil() {
		return nil // 必须是非nil指针
	}

	val = val.Elem()
	typ := val.Type()
	if typ.Kind() != reflect.Struct {
		return nil
	}

	// 参数定义映射，用于查找默认值
	defMap := make(map[string]ParamDef, len(paramDefs))
	for _, def := range paramDefs {
		defMap[def.Name] = def
	}

	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		fieldVal := val.Field(i)

		if !fieldVal.CanSet() {
			continue
		}

		tag := field.Tag.Get("param")
		if tag == "" {
			continue
		}

		paramName := parseParamTag(tag).Name
		if paramName == "" {
			continue
		}

		paramValue := annotation.GetParam(paramName)
		if paramValue == "" {
			if def, ok := defMap[paramName]; ok {
				paramValue = def.Default
			}
		}

		if err := setFieldValue(fieldVal, paramValue); err != nil {
			return err
		}
	}

	return nil
}

// setFieldValue 设置字段值，支持 string, int, bool 等基本类型
func setFieldValue(field reflect.Value, value string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if value == "" {
			value = "0"
		}
		intVal, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return err
		}
		field.SetInt(intVal)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if value == "" {
			value = "0"
		}
		uintVal, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return err
		}
		field.SetUint(uintVal)
	case reflect.Bool:
		boolVal, err := strconv.ParseBool(value)
		if err != nil && value != "" {
			return err
		}
		field.SetBool(boolVal)
	case reflect.Float32, reflect.Float64:
		if value == "" {
			value = "0"
		}
		floatVal, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		field.SetFloat(floatVal)
	}
	return nil
}
